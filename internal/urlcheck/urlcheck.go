// Package urlcheck recognizes the source-site URL patterns accepted into the
// download queue.
package urlcheck

import (
	"regexp"
	"strings"
)

var sourcePattern = regexp.MustCompile(
	`^https?://(?:www\.|m\.|music\.)?(?:youtube\.com/(?:watch\?|playlist\?|shorts/|live/)|youtu\.be/)\S+$`,
)

// IsSourceURL reports whether the value matches a recognized source-site URL.
func IsSourceURL(value string) bool {
	return sourcePattern.MatchString(strings.TrimSpace(value))
}

// IsShort reports whether the URL points at a shorts-style clip. Shorts skip
// sponsor segment stripping since segment data is unreliable for them.
func IsShort(url string) bool {
	return strings.Contains(url, "youtube.com/shorts/")
}

// IsPlaylist reports whether the URL addresses a playlist.
func IsPlaylist(url string) bool {
	return strings.Contains(url, "list=")
}
