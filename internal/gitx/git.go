// Package gitx narrows a scan to the files a git history says changed.
package gitx

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrInvalidRange is returned when the from commit is after the to commit
var ErrInvalidRange = errors.New("from commit is after to commit")

// ChangedPaths resolves the repository containing scanRoot and returns the
// absolute paths of files changed since the given revision, plus files
// modified or untracked in the worktree.
func ChangedPaths(scanRoot string, since string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(scanRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", scanRoot, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	files, err := changedFiles(repo, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes since %s: %w", since, err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	for name, st := range status {
		if st.Worktree != git.Unmodified || st.Staging != git.Unmodified {
			files = append(files, name)
		}
	}

	return absolute(wt.Filesystem.Root(), files), nil
}

// RangePaths resolves the repository containing scanRoot and returns the
// absolute paths of files touched between from and to. Worktree changes
// are not included.
func RangePaths(scanRoot, from, to string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(scanRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", scanRoot, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	files, err := filesInRange(repo, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes in %s..%s: %w", from, to, err)
	}
	return absolute(wt.Filesystem.Root(), files), nil
}

// absolute joins repository-relative names to root, dropping duplicates.
func absolute(root string, files []string) []string {
	seen := make(map[string]bool, len(files))
	var paths []string
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// changedFiles returns the repository-relative files that changed between
// since and HEAD. An empty since lists every file at HEAD.
func changedFiles(repo *git.Repository, since string) ([]string, error) {
	// Get the HEAD commit
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	currentCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	// If no since commit specified, return all files
	if since == "" {
		return getAllFiles(currentCommit)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(since))
	if err != nil {
		return nil, err
	}
	sinceCommit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}

	// Get the diff between commits
	patch, err := sinceCommit.Patch(currentCommit)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, fileStat := range patch.Stats() {
		files = append(files, fileStat.Name)
	}

	return files, nil
}

// filesInRange returns every file touched by commits after from, up to
// and including to.
func filesInRange(repo *git.Repository, from, to string) ([]string, error) {
	fromHash, err := repo.ResolveRevision(plumbing.Revision(from))
	if err != nil {
		return nil, err
	}
	toHash, err := repo.ResolveRevision(plumbing.Revision(to))
	if err != nil {
		return nil, err
	}

	fromCommit, err := repo.CommitObject(*fromHash)
	if err != nil {
		return nil, err
	}
	toCommit, err := repo.CommitObject(*toHash)
	if err != nil {
		return nil, err
	}

	if fromCommit.Committer.When.After(toCommit.Committer.When) {
		return nil, ErrInvalidRange
	}

	patch, err := fromCommit.Patch(toCommit)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, fileStat := range patch.Stats() {
		files = append(files, fileStat.Name)
	}
	sort.Strings(files)
	return files, nil
}

// Helper function to get all files in a commit
func getAllFiles(commit *object.Commit) ([]string, error) {
	var files []string
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})

	return files, err
}
