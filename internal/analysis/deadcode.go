// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package analysis

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
)

// Confidence is how sure the engine is that a finding is truly dead.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

func confidenceAtLeast(c, min Confidence) bool {
	rank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}
	return rank[c] >= rank[min]
}

// Category buckets a dead-code finding by where it lives.
type Category string

const (
	CategoryLibraryExport  Category = "library-export"
	CategoryUIComponent    Category = "ui-component"
	CategoryInternalUnused Category = "internal-unused"
	CategoryAll            Category = "all"
)

var uiComponentDirPattern = regexp.MustCompile(`(?:^|/)(?:components/ui|ui/components)(?:/|$)`)
var uiComponentExt = map[string]bool{".tsx": true, ".jsx": true, ".vue": true}
var packageDirPattern = regexp.MustCompile(`(?:^|/)packages/([^/]+)/`)

// categorize implements the dead-code categorisation rule: ui-component if
// the path sits under a components/ui (or ui/components) directory with a
// UI file extension; else library-export if under a packages/<name>/
// directory; else internal-unused.
func categorize(filePath string) Category {
	if uiComponentDirPattern.MatchString(filePath) && uiComponentExt[path.Ext(filePath)] {
		return CategoryUIComponent
	}
	if packageDirPattern.MatchString(filePath) {
		return CategoryLibraryExport
	}
	return CategoryInternalUnused
}

// defaultEntryPointFilePatterns catches framework/app-entry files even when
// the project's own semantic types don't already flag them.
var defaultEntryPointFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(^|/)(index|app|server|main)\.[a-z]+$`),
	regexp.MustCompile(`(?i)(^|/)(pages|app)/.*route\.[a-z]+$`),
	regexp.MustCompile(`(?i)(^|/)cmd/[^/]+/main\.go$`),
}

// Finding is one candidate dead node.
type Finding struct {
	Node       Node
	Confidence Confidence
	Category   Category
	Reason     string
}

// DeadCodeReader is the graph access the Dead-Code Engine needs.
type DeadCodeReader interface {
	// UnreferencedExports returns exported nodes with no importer anywhere
	// in the project.
	UnreferencedExports(ctx context.Context, projectID string) ([]Node, error)

	// UncalledPrivateMethods returns non-exported nodes with no internal
	// caller.
	UncalledPrivateMethods(ctx context.Context, projectID string) ([]Node, error)

	// UnreferencedInterfaces returns interface nodes nothing implements or
	// type-references.
	UnreferencedInterfaces(ctx context.Context, projectID string) ([]Node, error)

	// FrameworkEntryPoints returns nodes the project's own semantic types
	// mark as framework entry points (route handlers, lifecycle hooks, …).
	FrameworkEntryPoints(ctx context.Context, projectID string) ([]Node, error)
}

// Filter narrows a dead-code scan.
type Filter struct {
	ExcludePatterns      []*regexp.Regexp
	ExcludeSemanticTypes map[string]bool
	ExcludeCoreTypes     map[string]bool
	MinConfidence        Confidence
	Category             Category // CategoryAll (zero value treated as "all") or a specific category
	Limit, Offset        int
	SummaryOnly          bool
	IncludeEntryPoints   bool
}

func (f Filter) excluded(n Node) bool {
	for _, p := range f.ExcludePatterns {
		if p.MatchString(n.FilePath) {
			return true
		}
	}
	if f.ExcludeSemanticTypes[n.SemanticType] {
		return true
	}
	if f.ExcludeCoreTypes[n.CoreType] {
		return true
	}
	return false
}

// RiskLevel (of the aggregate dead-code scan, distinct from the Impact
// Engine's per-node RiskLevel) buckets the overall finding counts.
func aggregateRiskLevel(highCount, totalCount int) RiskLevel {
	switch {
	case highCount >= 20 || totalCount >= 50:
		return RiskCritical
	case highCount >= 10 || totalCount >= 25:
		return RiskHigh
	case highCount >= 5 || totalCount >= 10:
		return RiskMedium
	default:
		return RiskLow
	}
}

// FileDensity is one row of the top-20-by-density report.
type FileDensity struct {
	FilePath string
	Count    int
}

// ScanResult is the full C9 output.
type ScanResult struct {
	Findings          []Finding // omitted entirely when SummaryOnly
	EntryPointAudit   []Node    // populated only when IncludeEntryPoints
	TotalCount        int
	CountByConfidence map[Confidence]int
	CountByCategory   map[Category]int
	CountByCoreType   map[string]int
	TopFilesByDensity []FileDensity
	RiskLevel         RiskLevel
}

// DeadCodeEngine implements C9.
type DeadCodeEngine struct {
	Reader DeadCodeReader
}

// NewDeadCodeEngine builds an engine over the given reader.
func NewDeadCodeEngine(reader DeadCodeReader) *DeadCodeEngine {
	return &DeadCodeEngine{Reader: reader}
}

// Scan runs the three detection queries and the entry-point query one after
// another, classifies each finding, excludes entry points, applies the
// filter, and aggregates.
func (e *DeadCodeEngine) Scan(ctx context.Context, projectID string, filter Filter) (*ScanResult, error) {
	exported, err := e.Reader.UnreferencedExports(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("unreferenced exports: %w", err)
	}
	private, err := e.Reader.UncalledPrivateMethods(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("uncalled private methods: %w", err)
	}
	interfaces, err := e.Reader.UnreferencedInterfaces(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("unreferenced interfaces: %w", err)
	}
	entryPoints, err := e.Reader.FrameworkEntryPoints(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("framework entry points: %w", err)
	}

	entrySet := make(map[string]bool, len(entryPoints))
	for _, n := range entryPoints {
		entrySet[n.ID] = true
	}
	isDefaultEntryFile := func(filePath string) bool {
		for _, p := range defaultEntryPointFilePatterns {
			if p.MatchString(filePath) {
				return true
			}
		}
		return false
	}

	var all []Finding
	add := func(nodes []Node, confidence Confidence, reason string) {
		for _, n := range nodes {
			if entrySet[n.ID] || isDefaultEntryFile(n.FilePath) {
				continue
			}
			all = append(all, Finding{Node: n, Confidence: confidence, Category: categorize(n.FilePath), Reason: reason})
		}
	}
	add(exported, ConfidenceHigh, "exported but never imported")
	add(private, ConfidenceMedium, "private with no internal callers")
	add(interfaces, ConfidenceLow, "interface with no implementation or type reference")

	var auditList []Node
	if filter.IncludeEntryPoints {
		auditList = entryPoints
	}

	result := &ScanResult{
		EntryPointAudit:   auditList,
		CountByConfidence: map[Confidence]int{},
		CountByCategory:   map[Category]int{},
		CountByCoreType:   map[string]int{},
	}

	density := make(map[string]int)
	var filtered []Finding
	for _, f := range all {
		if filter.excluded(f.Node) {
			continue
		}
		if filter.MinConfidence != "" && !confidenceAtLeast(f.Confidence, filter.MinConfidence) {
			continue
		}
		if filter.Category != "" && filter.Category != CategoryAll && filter.Category != f.Category {
			continue
		}
		filtered = append(filtered, f)
		result.CountByConfidence[f.Confidence]++
		result.CountByCategory[f.Category]++
		result.CountByCoreType[f.Node.CoreType]++
		density[f.Node.FilePath]++
	}
	result.TotalCount = len(filtered)
	result.RiskLevel = aggregateRiskLevel(result.CountByConfidence[ConfidenceHigh], result.TotalCount)
	result.TopFilesByDensity = topFilesByDensity(density, 20)

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Confidence != filtered[j].Confidence {
			return rank(filtered[i].Confidence) > rank(filtered[j].Confidence)
		}
		return filtered[i].Node.FilePath < filtered[j].Node.FilePath
	})

	if !filter.SummaryOnly {
		result.Findings = paginate(filtered, filter.Offset, filter.Limit)
	}
	return result, nil
}

func rank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

func paginate(findings []Finding, offset, limit int) []Finding {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(findings) {
		return nil
	}
	end := len(findings)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return findings[offset:end]
}

func topFilesByDensity(density map[string]int, n int) []FileDensity {
	rows := make([]FileDensity, 0, len(density))
	for fp, count := range density {
		rows = append(rows, FileDensity{FilePath: fp, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].FilePath < rows[j].FilePath
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
