// Command fetchfont installs the studio UI font. By default it pulls a
// family's upright face from Google Fonts:
//
//	go run ./cmd/fetchfont -family "Inter"
//	go run ./cmd/fetchfont -url https://example.com/family.zip
package main

import (
	"flag"
	"fmt"
	"os"

	"roomstudio/internal/fonts"
)

func main() {
	family := flag.String("family", "Inter", "Google Fonts family to install")
	rawURL := flag.String("url", "", "direct font or zip URL, overrides -family")
	out := flag.String("out", "assets/fonts/studio.ttf", "install path")
	flag.Parse()

	f := fonts.NewFetcher()
	var err error
	if *rawURL != "" {
		err = f.FetchURL(*rawURL, *out)
	} else {
		err = f.FetchFamily(*family, *out)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fetchfont:", err)
		os.Exit(1)
	}
	fmt.Println("installed", *out)
}
