// Package queue defines the download job entity and its SQLite persistence.
package queue

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"ytqueue/internal/format"
)

// Status represents the lifecycle of a queued job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// TitlePlaceholder is shown until metadata resolution completes.
const TitlePlaceholder = "Resolving title..."

// Job is the entity flowing through the queue. Queue operations identify
// jobs by position, not value equality; the ID exists for persistence and
// log correlation.
type Job struct {
	ID           string
	URL          string
	Title        string
	Selector     format.Selector
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewJob creates a pending job with a fresh identifier.
func NewJob(url, title string, sel format.Selector) Job {
	now := time.Now().UTC()
	if strings.TrimSpace(title) == "" {
		title = TitlePlaceholder
	}
	return Job{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     title,
		Selector:  sel,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ShortTitle truncates the title for one-line summaries.
func (j Job) ShortTitle() string {
	const max = 35
	runes := []rune(j.Title)
	if len(runes) <= max {
		return j.Title
	}
	return string(runes[:max]) + "..."
}
