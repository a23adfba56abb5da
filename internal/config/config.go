package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
	CookiesPath string `toml:"cookies_path"`
	ArchivePath string `toml:"archive_path"`
}

// Tools contains the external executables the orchestrator invokes.
type Tools struct {
	YtDlp  string `toml:"yt_dlp"`
	FFmpeg string `toml:"ffmpeg"`
}

// Download contains the operator preference set read at command-construction
// time. Every recognized option is enumerated and typed; there is no open
// option bag.
type Download struct {
	Proxy              string   `toml:"proxy"`
	RateLimit          string   `toml:"rate_limit"`
	Retries            int      `toml:"retries"`
	DateAfter          string   `toml:"date_after"`
	LiveFromStart      bool     `toml:"live_from_start"`
	PlaylistReverse    bool     `toml:"playlist_reverse"`
	PlaylistItems      string   `toml:"playlist_items"`
	ClipStart          string   `toml:"clip_start"`
	ClipEnd            string   `toml:"clip_end"`
	EnableArchive      bool     `toml:"enable_archive"`
	AddMetadata        bool     `toml:"add_metadata"`
	MusicMetadata      bool     `toml:"music_metadata"`
	CookiesFromBrowser string   `toml:"cookies_from_browser"`
	SponsorBlock       []string `toml:"sponsorblock_categories"`
	ChaptersMode       string   `toml:"chapters_mode"`
	CustomFFmpegArgs   string   `toml:"custom_ffmpeg_args"`
}

// Subtitles contains subtitle download options.
type Subtitles struct {
	Enabled      bool   `toml:"enabled"`
	Langs        string `toml:"langs"`
	AutoSubs     bool   `toml:"auto_subs"`
	ConvertToSRT bool   `toml:"convert_to_srt"`
}

// Workflow contains process supervision timing, in seconds.
type Workflow struct {
	StartTimeout    int `toml:"start_timeout"`
	StopGrace       int `toml:"stop_grace"`
	MetadataTimeout int `toml:"metadata_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ytqueue.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Download  Download  `toml:"download"`
	Subtitles Subtitles `toml:"subtitles"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ytqueue/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytqueue.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.DownloadDir,
		&c.Paths.LogDir,
		&c.Paths.CookiesPath,
		&c.Paths.ArchivePath,
	} {
		if strings.TrimSpace(*field) == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Tools.YtDlp = strings.TrimSpace(c.Tools.YtDlp)
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Download.ChaptersMode = strings.ToLower(strings.TrimSpace(c.Download.ChaptersMode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// EnsureDirectories creates required directories for queue operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the location of the persisted queue database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.LogDir, "queue.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "ytqueue.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
