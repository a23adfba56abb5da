// Package format enumerates the download format selectors a job can carry
// and the yt-dlp format expressions they map to.
package format

import "strings"

// Selector identifies which command template applies to a job.
type Selector string

const (
	Best          Selector = "best"
	Video2160     Selector = "2160p"
	Video1440     Selector = "1440p"
	Video1080     Selector = "1080p"
	Video720      Selector = "720p"
	Video480      Selector = "480p"
	Audio         Selector = "audio"
	PlaylistAudio Selector = "playlist_audio"
	Music         Selector = "music"
)

var ordered = []Selector{
	Best,
	Video2160,
	Video1440,
	Video1080,
	Video720,
	Video480,
	Audio,
	PlaylistAudio,
	Music,
}

// expressions maps each selector to its yt-dlp -f format expression. Video
// selectors carry a "preferred/fallback" chain; the builder uses only the
// primary token (see Primary).
var expressions = map[Selector]string{
	Best:          "bestvideo+bestaudio/best",
	Video2160:     "bestvideo[height<=2160]+bestaudio/best[height<=2160]",
	Video1440:     "bestvideo[height<=1440]+bestaudio/best[height<=1440]",
	Video1080:     "bestvideo[height<=1080]+bestaudio/best[height<=1080]",
	Video720:      "bestvideo[height<=720]+bestaudio/best[height<=720]",
	Video480:      "bestvideo[height<=480]+bestaudio/best[height<=480]",
	Audio:         "bestaudio",
	PlaylistAudio: "bestaudio",
	Music:         "bestaudio",
}

var labels = map[Selector]string{
	Best:          "Best available",
	Video2160:     "Video up to 2160p",
	Video1440:     "Video up to 1440p",
	Video1080:     "Video up to 1080p",
	Video720:      "Video up to 720p",
	Video480:      "Video up to 480p",
	Audio:         "Audio only (mp3)",
	PlaylistAudio: "Playlist audio (mp3)",
	Music:         "Music (mp3, tagged)",
}

// All returns the selectors in presentation order.
func All() []Selector {
	cp := make([]Selector, len(ordered))
	copy(cp, ordered)
	return cp
}

// Parse converts a string into a known Selector.
func Parse(value string) (Selector, bool) {
	normalized := Selector(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := expressions[normalized]
	return normalized, ok
}

// Label returns the human-readable name for a selector.
func (s Selector) Label() string {
	if label, ok := labels[s]; ok {
		return label
	}
	return string(s)
}

// Expression returns the full yt-dlp format expression, fallback chain included.
func (s Selector) Expression() string {
	if expr, ok := expressions[s]; ok {
		return expr
	}
	return string(s)
}

// Primary returns the preferred token of the format expression. For selectors
// whose expression encodes a "preferred/fallback" chain only the text before
// the first slash is returned.
func (s Selector) Primary() string {
	expr := s.Expression()
	if idx := strings.Index(expr, "/"); idx >= 0 {
		return expr[:idx]
	}
	return expr
}

// Fallback returns the fallback token of the format expression, when one is
// encoded. It is never applied automatically; it exists so a front-end can
// offer a manual retry at the lower tier.
func (s Selector) Fallback() (string, bool) {
	expr := s.Expression()
	idx := strings.Index(expr, "/")
	if idx < 0 || idx+1 >= len(expr) {
		return "", false
	}
	return expr[idx+1:], true
}

// IsAudio reports whether the selector requests audio extraction.
func (s Selector) IsAudio() bool {
	switch s {
	case Audio, PlaylistAudio, Music:
		return true
	}
	return false
}

// IsPlaylist reports whether the selector always implies playlist handling,
// regardless of the job URL.
func (s Selector) IsPlaylist() bool {
	switch s {
	case PlaylistAudio, Music:
		return true
	}
	return false
}
