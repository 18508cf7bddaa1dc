// Package gitsource keeps local checkouts of deck repositories current.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones url into localPath, or pulls when a checkout already exists.
func Sync(ctx context.Context, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning deck repository", "url", url, "path", localPath)
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
	case err == nil:
		slog.Info("pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	return nil
}

// LocalPath maps a repository URL (https or scp-style ssh) to a directory
// under baseDir.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	// git@host:owner/repo.git
	hostPart, repoPath, ok := strings.Cut(repoURL, ":")
	if ok {
		if _, host, ok := strings.Cut(hostPart, "@"); ok && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// IsRemote reports whether path looks like a git URL rather than a directory.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@")
}
