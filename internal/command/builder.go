// Package command maps a job descriptor to the argument vector handed to the
// external downloader. Building is deterministic: skeleton flags first, then
// optional flags in a fixed declared sequence, then the target URL last.
package command

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ytqueue/internal/config"
	"ytqueue/internal/format"
	"ytqueue/internal/urlcheck"
)

// Builder assembles downloader argument vectors from a configuration
// snapshot. It performs no process interaction.
type Builder struct {
	cfg *config.Config
}

// NewBuilder constructs a Builder over an immutable options snapshot.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Download returns the argument vector for downloading url with the given
// format selector. The binary itself is not included.
func (b *Builder) Download(url string, sel format.Selector) []string {
	s := b.cfg

	args := []string{
		"--no-warnings",
		"--progress",
		"--newline",
		"--output-na-placeholder", "Unknown",
		"--ffmpeg-location", s.Tools.FFmpeg,
	}

	isPlaylist := urlcheck.IsPlaylist(url) || sel.IsPlaylist()
	isAudio := sel.IsAudio()

	if path, ok := usableCookies(s.Paths.CookiesPath); ok {
		args = append(args, "--cookies", path)
	}
	if s.Download.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", s.Download.CookiesFromBrowser)
	}
	if s.Download.Proxy != "" {
		args = append(args, "--proxy", s.Download.Proxy)
	}
	if s.Download.RateLimit != "" {
		args = append(args, "--limit-rate", s.Download.RateLimit)
	}
	args = append(args, "--retries", strconv.Itoa(s.Download.Retries))

	if s.Download.DateAfter != "" {
		args = append(args, "--dateafter", s.Download.DateAfter)
	}
	if s.Download.LiveFromStart {
		args = append(args, "--live-from-start")
	}
	if isPlaylist {
		args = append(args, "--ignore-errors")
	}
	if s.Download.EnableArchive {
		args = append(args, "--download-archive", s.Paths.ArchivePath)
	}
	if s.Download.PlaylistReverse {
		args = append(args, "--playlist-reverse")
	}
	if s.Download.PlaylistItems != "" {
		args = append(args, "--playlist-items", s.Download.PlaylistItems)
	}
	if s.Download.ClipStart != "" && s.Download.ClipEnd != "" {
		args = append(args, "--download-sections", "*"+s.Download.ClipStart+"-"+s.Download.ClipEnd)
	}

	nameTemplate := "%(title)s.%(ext)s"
	if s.Download.MusicMetadata {
		nameTemplate = "%(artist)s - %(title)s.%(ext)s"
	}
	if isPlaylist {
		template := filepath.Join(s.Paths.DownloadDir, "%(playlist_title)s", nameTemplate)
		args = append(args, "--yes-playlist", "-o", template)
	} else {
		args = append(args, "-o", filepath.Join(s.Paths.DownloadDir, nameTemplate))
	}

	if isAudio {
		args = append(args,
			"-f", sel.Primary(),
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "0",
			"--embed-thumbnail",
		)
		if s.Download.AddMetadata {
			args = append(args, "--add-metadata")
		}
		if sel == format.Music && s.Download.MusicMetadata {
			args = append(args,
				"--parse-metadata", "description:(?s)(?P<meta_comment>.+)",
				"--parse-metadata", `%(meta_comment)s:(?P<artist>[^\n]+)`,
				"--parse-metadata", `%(meta_comment)s:.+ - (?P<title>[^\n]+)`,
			)
		}
	} else {
		args = append(args, "-f", sel.Primary(), "--merge-output-format", "mkv")
		if s.Download.AddMetadata {
			args = append(args, "--add-metadata")
		}
	}

	if len(s.Download.SponsorBlock) > 0 && !urlcheck.IsShort(url) {
		args = append(args, "--sponsorblock-remove", strings.Join(s.Download.SponsorBlock, ","))
		args = append(args, "--sleep-requests", "1", "--sleep-subtitles", "1")
	}

	switch s.Download.ChaptersMode {
	case "split":
		args = append(args, "--split-chapters")
	case "embed":
		args = append(args, "--embed-chapters")
	}

	if s.Subtitles.Enabled {
		args = append(args, "--write-subs")
		if s.Subtitles.Langs != "" {
			args = append(args, "--sub-langs", s.Subtitles.Langs)
		}
		if s.Subtitles.AutoSubs {
			args = append(args, "--write-auto-subs")
		}
		if s.Subtitles.ConvertToSRT {
			args = append(args, "--convert-subs", "srt")
		}
	}

	if s.Download.CustomFFmpegArgs != "" {
		escaped := strings.ReplaceAll(s.Download.CustomFFmpegArgs, `"`, `\"`)
		args = append(args, "--postprocessor-args", `ffmpeg:"`+escaped+`"`)
	}

	return append(args, url)
}

// Metadata returns the argument vector for a metadata-only probe of url: no
// media download, one structured record per line.
func (b *Builder) Metadata(url string) []string {
	s := b.cfg

	args := []string{
		"--ffmpeg-location", s.Tools.FFmpeg,
		"--skip-download",
		"--print-json",
		"--ignore-errors",
		"--flat-playlist",
	}
	if path, ok := usableCookies(s.Paths.CookiesPath); ok {
		args = append(args, "--cookies", path)
	}
	if s.Download.Proxy != "" {
		args = append(args, "--proxy", s.Download.Proxy)
	}
	return append(args, url)
}

// usableCookies reports whether the cookie jar exists and is non-empty; an
// empty jar makes the downloader reject the whole invocation.
func usableCookies(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return path, true
}
