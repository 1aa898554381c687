package persist

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// history versions the dev container file with git so every flush leaves an
// inspectable trail. Best effort only: a failing commit never blocks a save.
type history struct {
	repo *gogit.Repository
}

func (h *history) open(dir string) error {
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		// Not a repo yet, initialize one.
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return fmt.Errorf("failed to initialize history repo in %s: %w", dir, err)
		}
	}
	h.repo = repo
	return nil
}

// commit stages file (relative to the repo root) and commits it. A clean
// worktree is a no-op.
func (h *history) commit(file string) error {
	w, err := h.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := w.Add(file); err != nil {
		return fmt.Errorf("failed to stage %s: %w", file, err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	_, err = w.Commit("persist: save "+file, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "persist",
			Email: "persist@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", file, err)
	}
	return nil
}
