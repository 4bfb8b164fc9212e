// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package identity computes and validates deterministic project identifiers.
//
// A project id is a pure function of its absolute root path: the same path
// always yields the same id, and two different paths practically never
// collide within the first 12 hex characters of a SHA-256 digest.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
)

// idPattern matches a well-formed project id: "proj_" followed by 12 lowercase hex digits.
var idPattern = regexp.MustCompile(`^proj_[0-9a-f]{12}$`)

// pathLikePattern recognizes inputs that look like filesystem paths rather than
// project names or ids: Unix-style absolute/relative paths, or a Windows drive letter.
var pathLikePattern = regexp.MustCompile(`^(/|\./|\.\./|[A-Za-z]:[\\/])`)

// GenerateID derives a project id from an absolute path.
//
// id = "proj_" + first 12 hex characters of SHA-256(absPath).
// The function is pure: it performs no filesystem access and does not
// canonicalize symlinks — callers that need canonical identity should
// resolve the path before calling GenerateID.
func GenerateID(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return "proj_" + hex.EncodeToString(sum[:])[:12]
}

// Validate reports whether s is a syntactically well-formed project id.
func Validate(s string) bool {
	return idPattern.MatchString(s)
}

// ErrNotFound is returned by Resolve when the input cannot be resolved to a project.
type ErrNotFound struct {
	Input string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no project found for input %q", e.Input)
}

// Lookup resolves a human-supplied name or path to a project id, consulting
// whatever backing store the caller wires in. Implementations query the
// graph store for a project whose friendly name or absolute path matches.
type Lookup interface {
	ByName(name string) (id string, ok bool, err error)
	ByPath(path string) (id string, ok bool, err error)
}

// Resolve implements the project-id resolution rule:
//  1. if input is already a well-formed id, return it unchanged;
//  2. else look it up by name, then by path, via the supplied Lookup;
//  3. else, if input looks like a filesystem path, derive an id from it directly;
//  4. else fail with ErrNotFound.
func Resolve(input string, lookup Lookup) (string, error) {
	if Validate(input) {
		return input, nil
	}

	if lookup != nil {
		if id, ok, err := lookup.ByName(input); err != nil {
			return "", err
		} else if ok {
			return id, nil
		}

		if id, ok, err := lookup.ByPath(input); err != nil {
			return "", err
		} else if ok {
			return id, nil
		}
	}

	if looksLikePath(input) {
		abs, err := filepath.Abs(input)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path: %w", err)
		}
		return GenerateID(abs), nil
	}

	return "", &ErrNotFound{Input: input}
}

func looksLikePath(input string) bool {
	return pathLikePattern.MatchString(input)
}
