// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package changedetect diffs the files on disk under a project root against
// the snapshot recorded at the previous parse, classifying each file as
// unchanged, needing reparse, or deleted.
package changedetect

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// defaultExcludeGlobs is the canonical exclude set from the component spec.
// Callers may extend it but should not need to replace it.
var defaultExcludeGlobs = []string{
	"node_modules/",
	"dist/",
	"build/",
	"coverage/",
	"*.d.ts",
	"*.spec.ts",
	"*.test.ts",
}

// IndexedFile is the persisted snapshot of a previously-parsed file.
type IndexedFile struct {
	FilePath    string
	ModTimeUnixNano int64
	Size        int64
	ContentHash string
}

// Snapshot answers "what do we have on record for this project" so the
// detector never has to know how the graph store persists IndexedFile rows.
type Snapshot interface {
	// IndexedFiles returns every file currently recorded for the project.
	IndexedFiles() (map[string]IndexedFile, error)
}

// Result is the outcome of a change-detection pass.
type Result struct {
	FilesToReparse []string
	FilesToDelete  []string
}

// Detector compares the on-disk tree under ProjectRoot against a Snapshot.
type Detector struct {
	ProjectRoot  string
	ExcludeGlobs []string
	SourceExts   []string
	Logger       *slog.Logger
}

// New builds a Detector with the canonical exclude set merged with any
// caller-supplied additions, and a default .go/.py/.ts/.tsx/.js/.jsx/.proto
// source extension set (the languages the AST-parser collaborator understands).
func New(projectRoot string, extraExcludeGlobs []string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	excludes := make([]string, 0, len(defaultExcludeGlobs)+len(extraExcludeGlobs))
	excludes = append(excludes, defaultExcludeGlobs...)
	excludes = append(excludes, extraExcludeGlobs...)

	return &Detector{
		ProjectRoot:  projectRoot,
		ExcludeGlobs: excludes,
		SourceExts:   []string{".go", ".py", ".ts", ".tsx", ".js", ".jsx", ".proto"},
		Logger:       logger,
	}
}

// Detect walks ProjectRoot, classifies every candidate file against snapshot,
// and returns the reparse/delete sets. Symlinks that escape the project root
// are dropped silently with a warning log (security: path-traversal protection).
func (d *Detector) Detect(snapshot Snapshot) (*Result, error) {
	canonicalRoot, err := filepath.EvalSymlinks(d.ProjectRoot)
	if err != nil {
		return nil, err
	}
	canonicalRoot = filepath.Clean(canonicalRoot)

	indexed, err := snapshot.IndexedFiles()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(indexed))
	result := &Result{}

	walkErr := filepath.WalkDir(d.ProjectRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				d.Logger.Warn("changedetect.walk.permission_denied", "path", path)
				return nil
			}
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !d.isSourceFile(path) || d.isExcluded(path) {
			return nil
		}

		canonicalPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil // removed between enumerate and stat
			}
			if errors.Is(err, fs.ErrPermission) {
				// Cannot resolve the symlink target: treat conservatively as reparse.
				seen[path] = true
				result.FilesToReparse = append(result.FilesToReparse, path)
				return nil
			}
			return nil
		}
		canonicalPath = filepath.Clean(canonicalPath)

		rel, err := filepath.Rel(canonicalRoot, canonicalPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			d.Logger.Warn("changedetect.symlink_escape", "path", path, "target", canonicalPath)
			return nil
		}

		seen[path] = true

		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil // ENOENT between enumerate and stat: silently drop
			}
			if errors.Is(err, fs.ErrPermission) {
				result.FilesToReparse = append(result.FilesToReparse, path) // EACCES: conservative reparse
				return nil
			}
			return nil
		}

		prior, wasIndexed := indexed[path]
		if !wasIndexed {
			result.FilesToReparse = append(result.FilesToReparse, path)
			return nil
		}

		if info.ModTime().UnixNano() == prior.ModTimeUnixNano && info.Size() == prior.Size {
			// Metadata unchanged: the content hash cannot differ without the
			// mtime or size also changing, so skip the read.
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				result.FilesToReparse = append(result.FilesToReparse, path)
				return nil
			}
			return nil
		}
		if hash != prior.ContentHash || info.Size() != prior.Size {
			result.FilesToReparse = append(result.FilesToReparse, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	for path := range indexed {
		if !seen[path] {
			result.FilesToDelete = append(result.FilesToDelete, path)
		}
	}

	return result, nil
}

func (d *Detector) isSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range d.SourceExts {
		if ext == want {
			return true
		}
	}
	return false
}

func (d *Detector) isExcluded(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range d.ExcludeGlobs {
		if strings.Contains(normalized, strings.TrimSuffix(pattern, "/")) {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(normalized)); ok {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
