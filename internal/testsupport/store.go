package testsupport

import (
	"testing"

	"cutline/internal/config"
	"cutline/internal/project"
)

// MustOpenProject opens a project.Store for tests and registers cleanup.
func MustOpenProject(t testing.TB, cfg *config.Config) *project.Store {
	t.Helper()

	store, err := project.Open(cfg)
	if err != nil {
		t.Fatalf("project.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
