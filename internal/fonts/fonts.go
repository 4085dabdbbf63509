// Package fonts locates and installs the studio's UI font. The binary does
// not bundle a typeface; overlays fall back to raylib's built-in font until
// one is installed under assets/fonts (see cmd/fetchfont).
package fonts

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher downloads font files from the google/fonts repository. The URLs
// are fields so tests can point them at a local server.
type Fetcher struct {
	// APIBase is the GitHub contents endpoint for the ofl directory.
	APIBase string
	// RawPrefix is the only prefix accepted in returned download URLs; no
	// user-supplied hosts.
	RawPrefix string
	Client    *http.Client
}

// NewFetcher returns a Fetcher wired to the public google/fonts repository.
func NewFetcher() *Fetcher {
	return &Fetcher{
		APIBase:   "https://api.github.com/repos/google/fonts/contents/ofl",
		RawPrefix: "https://raw.githubusercontent.com/google/fonts/",
		Client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// folderNames returns the ofl folder candidates for a family name.
// "Open Sans" becomes "opensans", then "open-sans".
func folderNames(family string) []string {
	family = strings.ToLower(strings.TrimSpace(family))
	if family == "" {
		return nil
	}
	joined := strings.ReplaceAll(family, " ", "")
	hyphened := strings.ReplaceAll(family, " ", "-")
	out := []string{joined}
	if hyphened != joined {
		out = append(out, hyphened)
	}
	return out
}

type repoFile struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// resolve returns the download URL for the upright face in one ofl folder.
func (f *Fetcher) resolve(folder string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, f.APIBase+"/"+url.PathEscape(folder), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("font index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("family %q not on Google Fonts", folder)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("font index: HTTP %d", resp.StatusCode)
	}
	var files []repoFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return "", fmt.Errorf("font index: %w", err)
	}

	var italic string
	for _, rf := range files {
		if rf.Type != "file" || rf.DownloadURL == "" {
			continue
		}
		if !isFontName(rf.Name) {
			continue
		}
		if !strings.HasPrefix(rf.DownloadURL, f.RawPrefix) {
			continue
		}
		if strings.Contains(strings.ToLower(rf.Name), "italic") {
			if italic == "" {
				italic = rf.DownloadURL
			}
			continue
		}
		return rf.DownloadURL, nil
	}
	if italic != "" {
		return italic, nil
	}
	return "", fmt.Errorf("family %q has no ttf/otf file", folder)
}

// FetchFamily resolves family on Google Fonts and installs its upright face
// at dest, replacing any existing file.
func (f *Fetcher) FetchFamily(family, dest string) error {
	folders := folderNames(family)
	if len(folders) == 0 {
		return fmt.Errorf("empty family name")
	}
	var lastErr error
	for _, folder := range folders {
		u, err := f.resolve(folder)
		if err != nil {
			lastErr = err
			continue
		}
		return f.FetchURL(u, dest)
	}
	return lastErr
}

// FetchURL downloads rawURL and installs it at dest. Zip archives are
// extracted and the best contained font file is installed instead.
func (f *Fetcher) FetchURL(rawURL, dest string) error {
	tmp, err := f.download(rawURL)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if isZip(tmp) {
		inner, cleanup, err := extractFont(tmp)
		if err != nil {
			return err
		}
		defer cleanup()
		return install(inner, dest)
	}
	return install(tmp, dest)
}

func (f *Fetcher) download(rawURL string) (string, error) {
	resp, err := f.Client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch font: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch font: HTTP %d", resp.StatusCode)
	}
	tmp, err := os.CreateTemp("", "font-*")
	if err != nil {
		return "", err
	}
	_, err = io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("fetch font: %w", err)
	}
	return tmp.Name(), nil
}

// isZip sniffs the local file's magic bytes.
func isZip(path string) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()
	var magic [4]byte
	if _, err := io.ReadFull(fh, magic[:]); err != nil {
		return false
	}
	return magic == [4]byte{'P', 'K', 0x03, 0x04}
}

// extractFont unpacks a zip into a temp dir and returns the preferred font
// file inside it. cleanup removes the temp dir; call it after install.
func extractFont(zipPath string) (path string, cleanup func(), err error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", nil, fmt.Errorf("font archive: %w", err)
	}
	defer r.Close()

	dir, err := os.MkdirTemp("", "fontzip-*")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.RemoveAll(dir) }

	var names []string
	for _, zf := range r.File {
		if zf.FileInfo().IsDir() || !isFontName(zf.Name) {
			continue
		}
		out := filepath.Join(dir, filepath.Base(zf.Name))
		if !strings.HasPrefix(out, dir+string(os.PathSeparator)) {
			continue // path escape
		}
		rc, err := zf.Open()
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("font archive: %w", err)
		}
		dst, err := os.Create(out)
		if err != nil {
			rc.Close()
			cleanup()
			return "", nil, err
		}
		_, err = io.Copy(dst, rc)
		rc.Close()
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("font archive: %w", err)
		}
		names = append(names, out)
	}
	best := pickFont(names)
	if best == "" {
		cleanup()
		return "", nil, fmt.Errorf("font archive %q has no ttf/otf file", filepath.Base(zipPath))
	}
	return best, cleanup, nil
}

// pickFont prefers an upright regular face, then any upright, then anything.
func pickFont(paths []string) string {
	var upright, any string
	for _, p := range paths {
		lower := strings.ToLower(filepath.Base(p))
		italic := strings.Contains(lower, "italic")
		if strings.Contains(lower, "regular") && !italic {
			return p
		}
		if !italic && upright == "" {
			upright = p
		}
		if any == "" {
			any = p
		}
	}
	if upright != "" {
		return upright
	}
	return any
}

// install copies src over dest, creating the destination directory.
func install(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("install font %q: %w", dest, err)
	}
	return nil
}

func isFontName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf")
}

// Find returns a font file to load from dir when the configured one is
// missing: a file named like "regular" wins, otherwise the first font found.
func Find(dir string) (string, bool) {
	var paths []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isFontName(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if best := pickFont(paths); best != "" {
		return best, true
	}
	return "", false
}
