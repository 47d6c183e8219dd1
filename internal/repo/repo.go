// Package repo produces a bounded source-code excerpt from a git
// repository, used as input to quiz generation.
package repo

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Source extensions considered relevant for quiz generation.
var sourceExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// Snapshot clones the repository (shallow) into a temporary directory and
// concatenates its recognized source files, each prefixed with a filename
// comment, up to maxLen characters. The clone is removed before returning.
func Snapshot(ctx context.Context, url string, maxLen int) (string, error) {
	dir, err := os.MkdirTemp("", "quizrepo-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove clone dir", "dir", dir, "error", err)
		}
	}()

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", url, err)
	}

	var sb strings.Builder
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if sb.Len() >= maxLen {
			return filepath.SkipAll
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sb.WriteString("\n// " + d.Name() + "\n")
		sb.Write(content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("collect source files: %w", err)
	}

	excerpt := sb.String()
	if len(excerpt) > maxLen {
		excerpt = excerpt[:maxLen]
	}
	if strings.TrimSpace(excerpt) == "" {
		return "", fmt.Errorf("no recognized source files in %s", url)
	}
	return excerpt, nil
}
