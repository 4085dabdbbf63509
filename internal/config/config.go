package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PrefsPath is the path to the studio config file, relative to the process
// working directory.
const PrefsPath = "config/studio.json"

// EnvFile is the optional environment file read before overrides are applied.
const EnvFile = ".env"

// envPrefix scopes which environment variables may override preferences.
const envPrefix = "ROOMSTUDIO_"

// Prefs holds studio preferences persisted across runs: window shape, overlay
// toggles, the editing mode, and where the material catalog is loaded from.
// Scene content is session state and is never written here.
type Prefs struct {
	WindowWidth     int32  `json:"window_width"`
	WindowHeight    int32  `json:"window_height"`
	Mode            string `json:"mode"`
	GridVisible     bool   `json:"grid_visible"`
	ShowFPS         bool   `json:"show_fps"`
	ShowStats       bool   `json:"show_stats"`
	MaterialCatalog string `json:"material_catalog,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`
}

// Default returns the out-of-the-box preferences: admin mode, grid on,
// overlays off.
func Default() Prefs {
	return Prefs{
		WindowWidth:  1600,
		WindowHeight: 900,
		Mode:         "admin",
		GridVisible:  true,
		ShowFPS:      false,
		ShowStats:    false,
		LogLevel:     "info",
	}
}

// Load reads preferences from config/studio.json, then applies ROOMSTUDIO_*
// environment overrides (after loading .env if present). A missing or invalid
// file yields defaults; the file is not created.
func Load() (Prefs, error) {
	p := Default()
	if data, err := os.ReadFile(PrefsPath); err == nil {
		if err := json.Unmarshal(data, &p); err != nil {
			p = Default()
		}
	}
	_ = LoadEnvFile(EnvFile)
	applyEnv(&p)
	return p, nil
}

// Save writes preferences to config/studio.json, creating the config directory
// if needed.
func Save(p Prefs) error {
	dir := filepath.Dir(PrefsPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(PrefsPath, data, 0644)
}

// LoadEnvFile reads the given file (e.g. ".env") and sets environment
// variables for each line of the form KEY=VALUE. Empty lines and lines
// starting with # are skipped. The file may be missing; that is not an error.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		if key == "" {
			continue
		}
		// Remove surrounding quotes if present
		if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' || value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
		_ = os.Setenv(key, value)
	}
	return scanner.Err()
}

// applyEnv overlays recognized ROOMSTUDIO_* variables onto p. Unset and empty
// variables change nothing; unparsable values are ignored.
func applyEnv(p *Prefs) {
	if v := os.Getenv(envPrefix + "MODE"); v != "" {
		p.Mode = v
	}
	if v := os.Getenv(envPrefix + "GRID"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.GridVisible = b
		}
	}
	if v := os.Getenv(envPrefix + "SHOW_FPS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.ShowFPS = b
		}
	}
	if v := os.Getenv(envPrefix + "SHOW_STATS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.ShowStats = b
		}
	}
	if v := os.Getenv(envPrefix + "MATERIALS"); v != "" {
		p.MaterialCatalog = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		p.LogLevel = v
	}
	if v := os.Getenv(envPrefix + "WINDOW"); v != "" {
		var w, h int32
		if _, err := fmt.Sscanf(v, "%dx%d", &w, &h); err == nil && w > 0 && h > 0 {
			p.WindowWidth = w
			p.WindowHeight = h
		}
	}
}
