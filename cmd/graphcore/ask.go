// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/kraklabs/graphcore/internal/analysis"
	"github.com/kraklabs/graphcore/internal/bootstrap"
	"github.com/kraklabs/graphcore/internal/config"
	"github.com/kraklabs/graphcore/internal/errors"
	"github.com/kraklabs/graphcore/internal/output"
	"github.com/kraklabs/graphcore/internal/ui"
	"github.com/kraklabs/graphcore/pkg/graphstore"
	"github.com/kraklabs/graphcore/pkg/llm"
)

// AskResponse is `ask --json`'s output shape.
type AskResponse struct {
	Question string `json:"question"`
	Target   string `json:"target"`
	Answer   string `json:"answer"`
}

// runAsk implements D3: answer a free-form question about the codebase,
// grounded in a bounded traversal report around target rather than the
// model's own (possibly stale or invented) recollection of the code.
func runAsk(args []string, configPath string, globals GlobalFlags) {
	fs := pflag.NewFlagSet("ask", pflag.ExitOnError)
	project := fs.String("project", "", "Project id or path")
	maxDepth := fs.Int("max-depth", 3, "Traversal depth used to gather context around the target")
	maxTokens := fs.Int("max-tokens", 1024, "Max tokens in the assistant's answer")
	_ = fs.Parse(args)

	ui.InitColors(globals.NoColor)

	if fs.NArg() < 2 {
		errors.FatalError(errors.NewInputError("Missing arguments",
			"ask requires a target and a question", "Run: graphcore ask <node-id> \"<question>\""), globals.JSON)
	}
	target, question := fs.Arg(0), fs.Arg(1)

	ctx := context.Background()
	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Type != "ollama" && cfg.LLM.Type != "mock" {
		errors.FatalError(errors.NewConfigError("No LLM provider configured",
			"llm.api_key is empty and llm.type is not ollama/mock",
			"Set llm.api_key in your config, or GRAPHCORE_LLM_API_KEY, or point llm.type at a local ollama", nil), globals.JSON)
	}

	conn, err := bootstrap.Connect(ctx, cfg.Store, slog.Default())
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot connect to the graph store", err.Error(),
			"Check store.uri/username/password in your config or run: graphcore init", err), globals.JSON)
	}
	defer conn.Close(ctx)

	projectID := resolveProjectOrExit(ctx, conn.Store, *project, globals)
	reader := graphstore.NewAnalysisStore(conn.Store, projectID)
	engine := analysis.NewTraversalEngine(reader)
	traversal, err := engine.TraverseFromNode(ctx, target, analysis.TraversalOptions{
		MaxDepth:            *maxDepth,
		IncludeStartDetails: true,
	})
	if err != nil {
		errors.FatalError(errors.NewNotFoundError("Cannot gather context for target", err.Error(),
			"Run: graphcore trace <node-id> to explore valid ids"), globals.JSON)
	}

	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:         cfg.LLM.Type,
		BaseURL:      cfg.LLM.Endpoint,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.Model,
	})
	if err != nil {
		errors.FatalError(errors.NewConfigError("Cannot build LLM provider", err.Error(),
			"Check llm.type/endpoint/api_key in your config", err), globals.JSON)
	}
	assistant := llm.NewAssistant(provider, *maxTokens, 0)

	answer, err := assistant.Answer(ctx, question, traversal.Report())
	if err != nil {
		errors.FatalError(errors.NewNetworkError("Cannot reach LLM provider", err.Error(),
			"Check llm.endpoint/api_key, or set llm.type to ollama for a local model", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(AskResponse{Question: question, Target: target, Answer: answer})
		return
	}
	ui.Header("Answer")
	fmt.Println(answer)
}
