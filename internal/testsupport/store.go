package testsupport

import (
	"context"
	"testing"

	"ytqueue/internal/config"
	"ytqueue/internal/format"
	"ytqueue/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustAppend appends a pending job for url and returns it.
func MustAppend(t testing.TB, store *queue.Store, url, title string) queue.Job {
	t.Helper()

	job := queue.NewJob(url, title, format.Best)
	if err := store.Append(context.Background(), job); err != nil {
		t.Fatalf("queue.Append: %v", err)
	}
	return job
}
