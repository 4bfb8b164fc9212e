// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TraversalEdge is one hop out of a node during a BFS walk.
type TraversalEdge struct {
	RelationshipType string
	Target           Node
}

// TraversalReader is the graph access the Traversal Engine needs.
type TraversalReader interface {
	// GetNode fetches a single node, or (nil, nil) if it doesn't exist.
	GetNode(ctx context.Context, nodeID string) (*Node, error)

	// Neighbors returns the outgoing edges from nodeID.
	Neighbors(ctx context.Context, nodeID string) ([]TraversalEdge, error)
}

// Reached is one node found during a traversal, with the depth and
// relationship chain that reached it first (BFS guarantees this is a
// shortest chain).
type Reached struct {
	Node  Node
	Depth int
	Chain []string // relationship types, root to this node
}

func (r Reached) chainString() string {
	return strings.Join(r.Chain, " -> ")
}

// DepthGroup is every node reached at a given depth, grouped further by the
// relationship chain that reached them.
type DepthGroup struct {
	Depth  int
	Chains []ChainGroup
}

// ChainGroup is every node reached via one specific relationship chain at a
// given depth, truncated to the traversal's limit.
type ChainGroup struct {
	Chain       string
	Nodes       []Node
	TotalCount  int // before truncation
	TruncatedTo int // len(Nodes)
}

// TraversalOptions configures traverseFromNode.
type TraversalOptions struct {
	MaxDepth            int // capped at 10; zero or negative also means 10
	Limit               int // per-chain-group truncation; 0 means unlimited
	IncludeStartDetails bool
	Title               string
}

// TraversalSummary reports aggregate counts over a traversal.
type TraversalSummary struct {
	Title            string
	TotalConnections int
	MaxDepthReached  int
	DistinctFiles    int
}

// TraversalResult is the full C10 output.
type TraversalResult struct {
	Start   Node
	Depths  []DepthGroup
	Summary TraversalSummary
}

// TraversalEngine implements C10: bounded BFS grouped by depth and
// relationship chain.
type TraversalEngine struct {
	Reader TraversalReader
}

// NewTraversalEngine builds an engine over the given reader.
func NewTraversalEngine(reader TraversalReader) *TraversalEngine {
	return &TraversalEngine{Reader: reader}
}

// TraverseFromNode implements traverseFromNode(nodeId, {maxDepth, limit,
// includeStartDetails, title}).
func (e *TraversalEngine) TraverseFromNode(ctx context.Context, nodeID string, opts TraversalOptions) (*TraversalResult, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if maxDepth > 10 {
		maxDepth = 10
	}

	start, err := e.Reader.GetNode(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("get start node %s: %w", nodeID, err)
	}
	if start == nil {
		return nil, fmt.Errorf("start node %s does not exist", nodeID)
	}

	visited := map[string]bool{nodeID: true}
	queue := []Reached{{Node: *start, Depth: 0, Chain: nil}}
	var reached []Reached

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.Depth > 0 {
			reached = append(reached, current)
		}
		if current.Depth >= maxDepth {
			continue
		}
		edges, err := e.Reader.Neighbors(ctx, current.Node.ID)
		if err != nil {
			return nil, fmt.Errorf("neighbors of %s: %w", current.Node.ID, err)
		}
		for _, edge := range edges {
			if visited[edge.Target.ID] {
				continue
			}
			visited[edge.Target.ID] = true
			chain := make([]string, len(current.Chain)+1)
			copy(chain, current.Chain)
			chain[len(chain)-1] = edge.RelationshipType
			queue = append(queue, Reached{Node: edge.Target, Depth: current.Depth + 1, Chain: chain})
		}
	}

	if opts.IncludeStartDetails {
		reached = append([]Reached{{Node: *start, Depth: 0, Chain: nil}}, reached...)
	}

	result := &TraversalResult{Start: *start}
	files := make(map[string]bool)
	maxDepthReached := 0

	byDepth := make(map[int]map[string][]Node)
	byDepthTotal := make(map[int]map[string]int)
	for _, r := range reached {
		files[r.Node.FilePath] = true
		if r.Depth > maxDepthReached {
			maxDepthReached = r.Depth
		}
		chainKey := r.chainString()
		if byDepth[r.Depth] == nil {
			byDepth[r.Depth] = make(map[string][]Node)
			byDepthTotal[r.Depth] = make(map[string]int)
		}
		byDepthTotal[r.Depth][chainKey]++
		if opts.Limit <= 0 || len(byDepth[r.Depth][chainKey]) < opts.Limit {
			byDepth[r.Depth][chainKey] = append(byDepth[r.Depth][chainKey], r.Node)
		}
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	for _, d := range depths {
		chainKeys := make([]string, 0, len(byDepth[d]))
		for c := range byDepth[d] {
			chainKeys = append(chainKeys, c)
		}
		sort.Strings(chainKeys)
		group := DepthGroup{Depth: d}
		for _, c := range chainKeys {
			group.Chains = append(group.Chains, ChainGroup{
				Chain:       c,
				Nodes:       byDepth[d][c],
				TotalCount:  byDepthTotal[d][c],
				TruncatedTo: len(byDepth[d][c]),
			})
		}
		result.Depths = append(result.Depths, group)
	}

	result.Summary = TraversalSummary{
		Title:            opts.Title,
		TotalConnections: len(reached),
		MaxDepthReached:  maxDepthReached,
		DistinctFiles:    len(files),
	}
	return result, nil
}

// Report renders a human-readable layered report, grouped the same way the
// result itself is grouped.
func (r *TraversalResult) Report() string {
	var sb strings.Builder
	title := r.Summary.Title
	if title == "" {
		title = fmt.Sprintf("Traversal from %s", r.Start.Name)
	}
	fmt.Fprintf(&sb, "## %s\n\n", title)
	fmt.Fprintf(&sb, "_%d connections, max depth %d, %d distinct files_\n\n",
		r.Summary.TotalConnections, r.Summary.MaxDepthReached, r.Summary.DistinctFiles)

	for _, group := range r.Depths {
		fmt.Fprintf(&sb, "### Depth %d\n\n", group.Depth)
		for _, chain := range group.Chains {
			fmt.Fprintf(&sb, "- `%s` (%d of %d)\n", chain.Chain, chain.TruncatedTo, chain.TotalCount)
			for _, n := range chain.Nodes {
				fmt.Fprintf(&sb, "  - %s (%s) — %s:%d\n", n.Name, n.CoreType, n.FilePath, n.LineNumber)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
