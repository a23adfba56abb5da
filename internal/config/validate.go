package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == "" {
		return errors.New("paths.download_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.YtDlp == "" {
		return errors.New("tools.yt_dlp must be set")
	}
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.Retries < 0 {
		return errors.New("download.retries must not be negative")
	}
	switch c.Download.ChaptersMode {
	case "", "split", "embed":
	default:
		return fmt.Errorf("download.chapters_mode: unsupported value %q (expected split or embed)", c.Download.ChaptersMode)
	}
	if (c.Download.ClipStart == "") != (c.Download.ClipEnd == "") {
		return errors.New("download.clip_start and download.clip_end must be set together")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StartTimeout <= 0 {
		return errors.New("workflow.start_timeout must be positive")
	}
	if c.Workflow.StopGrace <= 0 {
		return errors.New("workflow.stop_grace must be positive")
	}
	if c.Workflow.MetadataTimeout <= 0 {
		return errors.New("workflow.metadata_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
