// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package astparser defines the contract the core parse pipeline expects
// from a source-code AST parser. The parser itself — tree-sitter grammars,
// language-specific extraction rules, framework schema loading — is an
// external collaborator and is not implemented in this module; this package
// exists only so the pipeline can be typed against a stable interface.
package astparser

import "context"

// Node is a parsed code entity, matching the CodeNode shape the parse
// pipeline imports into the graph store.
type Node struct {
	ID             string
	Name           string
	Labels         []string
	CoreType       string
	SemanticType   string
	FilePath       string
	LineNumber     int
	SourceCode     string
	Visibility     string
	IsExported     bool
}

// Edge is a resolved relationship between two nodes already known within
// the current chunk.
type Edge struct {
	ID               string
	RelationshipType string
	Direction        string
	SourceNodeID     string
	TargetNodeID     string
	Properties       map[string]any
	Confidence       float64
	Source           string
}

// DeferredEdgeRef is a symbolic reference to an edge whose target cannot be
// resolved until sibling chunks have been parsed.
type DeferredEdgeRef struct {
	RelationshipType string
	SourceNodeID     string
	TargetSymbol     string
	TargetFilePath   string
	Properties       map[string]any
}

// SharedContext is an opaque, per-chunk increment of cross-file state (symbol
// tables, package indexes) the coordinator merges across chunk workers.
type SharedContext map[string]any

// ChunkResult is what a single call to Parser.ParseChunk produces.
type ChunkResult struct {
	Nodes           []Node
	Edges           []Edge
	DeferredEdges   []DeferredEdgeRef
	FilesProcessed  int
	SharedContext   SharedContext
}

// Config configures a Parser instance.
type Config struct {
	WorkspacePath string
	TSConfigPath  string
	ProjectType   string
	ProjectID     string
	LazyLoad      bool
}

// Parser is the capability contract a chunk worker drives. Implementations
// are expected to be safe for use by exactly one worker at a time and to
// never touch files outside the chunk they were given (lazy loading).
type Parser interface {
	// DiscoverSourceFiles enumerates candidate files under the configured workspace.
	DiscoverSourceFiles(ctx context.Context) ([]string, error)

	// ParseChunk parses the given files. When skipDeferredResolution is true,
	// the parser must emit DeferredEdgeRef values instead of attempting to
	// resolve cross-file references itself.
	ParseChunk(ctx context.Context, files []string, skipDeferredResolution bool) (*ChunkResult, error)

	// MergeSerializedSharedContext folds another chunk's shared-context
	// increment into this parser's view, so later chunks see earlier symbols.
	MergeSerializedSharedContext(ctx SharedContext) error

	// MergeDeferredEdges registers deferred edges discovered by any chunk so a
	// later ResolveDeferredEdges pass can resolve them against the full index.
	MergeDeferredEdges(edges []DeferredEdgeRef) error

	// ResolveDeferredEdges resolves every merged deferred edge against
	// whatever shared context has accumulated, once all chunks are done.
	ResolveDeferredEdges(ctx context.Context) ([]Edge, error)

	// ApplyEdgeEnhancementsManually produces additional derived edges (e.g.
	// decorator-implied relationships) once the graph is otherwise complete.
	ApplyEdgeEnhancementsManually(ctx context.Context) ([]Edge, error)

	// LoadFrameworkSchemasForType loads framework-specific extraction rules
	// for a project type (e.g. "nextjs", "django"); a no-op for unknown types.
	LoadFrameworkSchemasForType(projectType string) error

	// ClearParsedData resets any per-project state the parser has accumulated.
	ClearParsedData()

	// GetProjectID returns the project id this parser instance is bound to.
	GetProjectID() string
}

// Factory constructs a Parser for the given configuration. This module never
// provides a concrete implementation: callers must supply one via dependency
// injection (the AST parser is an external collaborator per the system's
// scope boundary).
type Factory func(cfg Config) (Parser, error)
