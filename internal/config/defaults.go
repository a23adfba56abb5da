package config

const (
	defaultDownloadDir     = "~/Downloads/ytqueue"
	defaultLogDir          = "~/.local/share/ytqueue/logs"
	defaultCookiesPath     = "~/.config/ytqueue/cookies.txt"
	defaultArchivePath     = "~/.config/ytqueue/archive.txt"
	defaultYtDlpBinary     = "yt-dlp"
	defaultFFmpegBinary    = "ffmpeg"
	defaultRetries         = 10
	defaultSubtitleLangs   = "en"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultStartTimeout    = 5
	defaultStopGrace       = 3
	defaultMetadataTimeout = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			CookiesPath: defaultCookiesPath,
			ArchivePath: defaultArchivePath,
		},
		Tools: Tools{
			YtDlp:  defaultYtDlpBinary,
			FFmpeg: defaultFFmpegBinary,
		},
		Download: Download{
			Retries:     defaultRetries,
			AddMetadata: true,
		},
		Subtitles: Subtitles{
			Langs: defaultSubtitleLangs,
		},
		Workflow: Workflow{
			StartTimeout:    defaultStartTimeout,
			StopGrace:       defaultStopGrace,
			MetadataTimeout: defaultMetadataTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
