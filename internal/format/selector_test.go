package format_test

import (
	"strings"
	"testing"

	"ytqueue/internal/format"
)

func TestParseAcceptsKnownSelectors(t *testing.T) {
	for _, sel := range format.All() {
		parsed, ok := format.Parse(string(sel))
		if !ok {
			t.Fatalf("Parse rejected %q", sel)
		}
		if parsed != sel {
			t.Fatalf("Parse(%q) = %q", sel, parsed)
		}
	}
}

func TestParseNormalizesCaseAndSpace(t *testing.T) {
	parsed, ok := format.Parse("  1080P ")
	if !ok {
		t.Fatal("expected padded uppercase selector to parse")
	}
	if parsed != format.Video1080 {
		t.Fatalf("unexpected selector: %q", parsed)
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	if _, ok := format.Parse("8k"); ok {
		t.Fatal("expected unknown selector to be rejected")
	}
	if _, ok := format.Parse(""); ok {
		t.Fatal("expected empty selector to be rejected")
	}
}

func TestPrimaryStripsFallbackChain(t *testing.T) {
	if got := format.Video1080.Primary(); got != "bestvideo[height<=1080]+bestaudio" {
		t.Fatalf("unexpected primary token: %q", got)
	}
	if got := format.Audio.Primary(); got != "bestaudio" {
		t.Fatalf("unexpected audio primary: %q", got)
	}
}

func TestFallbackOnlyForChainedExpressions(t *testing.T) {
	fallback, ok := format.Video720.Fallback()
	if !ok {
		t.Fatal("expected a fallback token for 720p")
	}
	if fallback != "best[height<=720]" {
		t.Fatalf("unexpected fallback: %q", fallback)
	}
	if _, ok := format.Audio.Fallback(); ok {
		t.Fatal("audio selector should not report a fallback")
	}
}

func TestAudioAndPlaylistClassification(t *testing.T) {
	if !format.Music.IsAudio() || !format.PlaylistAudio.IsAudio() || !format.Audio.IsAudio() {
		t.Fatal("expected audio selectors to report IsAudio")
	}
	if format.Best.IsAudio() {
		t.Fatal("best selector should not report IsAudio")
	}
	if !format.PlaylistAudio.IsPlaylist() || !format.Music.IsPlaylist() {
		t.Fatal("expected playlist selectors to report IsPlaylist")
	}
	if format.Audio.IsPlaylist() {
		t.Fatal("plain audio selector should not imply playlist handling")
	}
}

func TestVideoExpressionsCapHeight(t *testing.T) {
	for _, sel := range []format.Selector{format.Video2160, format.Video1440, format.Video1080, format.Video720, format.Video480} {
		expr := sel.Expression()
		limit := strings.TrimSuffix(string(sel), "p")
		if !strings.Contains(expr, "height<="+limit) {
			t.Fatalf("expression for %q does not cap height: %q", sel, expr)
		}
	}
}
