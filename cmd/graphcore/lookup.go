// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"

	"github.com/kraklabs/graphcore/pkg/graphstore"
)

// storeLookup implements identity.Lookup against the live graph store, so
// CLI commands can resolve a stored project path back to its id without
// every caller re-deriving the ListProjects scan.
type storeLookup struct {
	ctx   context.Context
	store *graphstore.Store
}

// ByName compares name against each project's stored path, exactly as
// ByPath does: ProjectInfo carries no project name, so a bare name that is
// not a stored path never matches.
func (l storeLookup) ByName(name string) (string, bool, error) {
	return l.find(func(p graphstore.ProjectInfo) bool { return p.Path == name })
}

func (l storeLookup) ByPath(path string) (string, bool, error) {
	return l.find(func(p graphstore.ProjectInfo) bool { return p.Path == path })
}

func (l storeLookup) find(match func(graphstore.ProjectInfo) bool) (string, bool, error) {
	projects, err := l.store.ListProjects(l.ctx)
	if err != nil {
		return "", false, err
	}
	for _, p := range projects {
		if match(p) {
			return p.ID, true, nil
		}
	}
	return "", false, nil
}
