// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/analysis"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/internal/ui"
	"github.com/kraklabs/graphcore/pkg/graphstore"
)

func runDeadcode(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("deadcode", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	category := fs.String("category", "", "Filter by category: library-export, ui-component, internal-unused")
	minConfidence := fs.String("min-confidence", "", "Minimum confidence: LOW, MEDIUM, HIGH")
	limit := fs.Int("limit", 50, "Max findings to print")
	offset := fs.Int("offset", 0, "Findings to skip")
	summaryOnly := fs.Bool("summary", false, "Only print aggregate counts, no individual findings")
	_ = fs.Parse(args)

	ui.InitColors(globals.NoColor)

	ctx := context.Background()
	conn := connectOrExit(ctx, configPath, globals)
	defer conn.Close(ctx)

	projectID := resolveProjectOrExit(ctx, conn.Store, *project, globals)

	reader := graphstore.NewAnalysisStore(conn.Store, projectID)
	engine := analysis.NewDeadCodeEngine(reader)

	filter := analysis.Filter{
		Category:      analysis.Category(*category),
		MinConfidence: analysis.Confidence(*minConfidence),
		Limit:         *limit,
		Offset:        *offset,
		SummaryOnly:   *summaryOnly,
	}
	result, err := engine.Scan(ctx, projectID, filter)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Dead-code scan failed", err.Error(), "Retry after the store recovers", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	printDeadcodeReport(result)
}

func printDeadcodeReport(r *analysis.ScanResult) {
	ui.Header("Dead Code Scan")
	fmt.Printf("Total findings: %s (risk: %s)\n", ui.CountText(r.TotalCount), r.RiskLevel)
	for category, count := range r.CountByCategory {
		fmt.Printf("  %-18s %d\n", category, count)
	}
	if len(r.TopFilesByDensity) > 0 {
		ui.SubHeader("\nDensest files:")
		for _, f := range r.TopFilesByDensity {
			fmt.Printf("  %-4d %s\n", f.Count, f.FilePath)
		}
	}
	if len(r.Findings) > 0 {
		ui.SubHeader("\nFindings:")
		for _, f := range r.Findings {
			fmt.Printf("  [%s] %s (%s) — %s:%d — %s\n",
				f.Confidence, f.Node.Name, f.Node.CoreType, f.Node.FilePath, f.Node.LineNumber, f.Reason)
		}
	}
}
