// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package bootstrap

import (
	"context"
	"testing"

	"github.com/kraklabs/graphcore/pkg/graphstore"
)

func TestListProjects_ReturnsIDsFromQueryResult(t *testing.T) {
	backend := graphstore.NewMemoryBackend()
	backend.SeedQuery(&graphstore.QueryResult{
		Headers: []string{"id"},
		Rows:    [][]any{{"alpha"}, {"beta"}},
	})
	conn := &Connection{Store: graphstore.New(backend), backend: backend}

	got, err := ListProjects(context.Background(), conn)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("ListProjects() = %v, want [alpha beta]", got)
	}
}

func TestListProjects_PropagatesQueryError(t *testing.T) {
	backend := graphstore.NewMemoryBackend()
	backend.FailQuery(context.DeadlineExceeded)
	conn := &Connection{Store: graphstore.New(backend), backend: backend}

	if _, err := ListProjects(context.Background(), conn); err == nil {
		t.Fatal("expected an error when the underlying query fails")
	}
}

func TestConnection_Close_DelegatesToBackend(t *testing.T) {
	backend := graphstore.NewMemoryBackend()
	conn := &Connection{Store: graphstore.New(backend), backend: backend}

	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
