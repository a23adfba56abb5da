// Package deps verifies the external tools and support files a download run
// depends on.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"ytqueue/internal/config"
)

// Requirement defines an external dependency ytqueue relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// FromConfig enumerates the dependencies of a configured queue.
func FromConfig(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YtDlp,
			Description: "Downloads media and probes metadata",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Merges containers and extracts audio",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckCookieJar reports whether the configured cookie jar will actually be
// passed to the downloader. The jar is always optional.
func CheckCookieJar(path string) Status {
	status := Status{
		Name:        "Cookie jar",
		Command:     strings.TrimSpace(path),
		Description: "Netscape cookies passed to yt-dlp",
		Optional:    true,
	}
	if status.Command == "" {
		status.Detail = "not configured"
		return status
	}
	info, err := os.Stat(status.Command)
	switch {
	case err != nil:
		status.Detail = "file not found"
	case info.IsDir():
		status.Detail = "path is a directory"
	case info.Size() == 0:
		status.Detail = "file is empty"
	default:
		status.Available = true
	}
	return status
}

// Missing filters statuses down to unavailable required dependencies.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
