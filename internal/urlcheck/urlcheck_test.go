package urlcheck_test

import (
	"testing"

	"ytqueue/internal/urlcheck"
)

func TestIsSourceURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=abc123",
		"https://m.youtube.com/watch?v=abc123",
		"https://music.youtube.com/playlist?list=OLAK5uy_abc",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc123",
		"https://www.youtube.com/live/abc123",
	}
	for _, url := range valid {
		if !urlcheck.IsSourceURL(url) {
			t.Errorf("expected %q to be accepted", url)
		}
	}

	invalid := []string{
		"",
		"https://example.com/watch?v=abc",
		"https://www.youtube.com/channel/UCabc",
		"ftp://youtube.com/watch?v=abc",
		"youtube.com/watch?v=abc",
		"https://youtu.be/",
	}
	for _, url := range invalid {
		if urlcheck.IsSourceURL(url) {
			t.Errorf("expected %q to be rejected", url)
		}
	}
}

func TestIsShort(t *testing.T) {
	if !urlcheck.IsShort("https://www.youtube.com/shorts/abc123") {
		t.Fatal("expected shorts URL to be detected")
	}
	if urlcheck.IsShort("https://www.youtube.com/watch?v=abc123") {
		t.Fatal("watch URL is not a short")
	}
}

func TestIsPlaylist(t *testing.T) {
	if !urlcheck.IsPlaylist("https://www.youtube.com/playlist?list=PLabc") {
		t.Fatal("expected playlist URL to be detected")
	}
	if !urlcheck.IsPlaylist("https://www.youtube.com/watch?v=abc&list=PLabc") {
		t.Fatal("expected watch URL with list param to be detected")
	}
	if urlcheck.IsPlaylist("https://www.youtube.com/watch?v=abc") {
		t.Fatal("plain watch URL is not a playlist")
	}
}
