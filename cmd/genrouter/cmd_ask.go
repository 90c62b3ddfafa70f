// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/genrouter/services/assistant"
	"github.com/AleutianAI/genrouter/services/generation"
	"github.com/AleutianAI/genrouter/services/llm"
)

var (
	askVerbose  bool
	modelsHint  string
	suggestClub bool
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Send one prompt through the router and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAskCommand,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [prompt or club name...]",
	Short: "Ask for a structured event suggestion and print it as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggestCommand,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List generation-capable models per API version",
	Args:  cobra.NoArgs,
	RunE:  runModelsCommand,
}

func init() {
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Print the phase and every attempted candidate")
	suggestCmd.Flags().BoolVar(&suggestClub, "club", false, "Treat the arguments as a club name and use the event suggestion prompt")
	modelsCmd.Flags().StringVar(&modelsHint, "version", "", "Extra API version to list first")
}

// withCommandTelemetry runs fn with telemetry installed for the command.
func withCommandTelemetry(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	ctx := cmd.Context()
	shutdown, err := setupTelemetry(ctx, telemetryOptions{Stdout: telemetryStdout, Console: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	return fn(ctx)
}

func runAskCommand(cmd *cobra.Command, args []string) error {
	return withCommandTelemetry(cmd, func(ctx context.Context) error {
		router, _, err := newRouter()
		if err != nil {
			return err
		}

		req, err := llm.NewGenerationRequest(strings.Join(args, " "), llm.FormatText)
		if err != nil {
			return err
		}
		res := router.Route(ctx, req)
		printRouteResult(cmd.OutOrStdout(), res, askVerbose)
		return nil
	})
}

func runSuggestCommand(cmd *cobra.Command, args []string) error {
	return withCommandTelemetry(cmd, func(ctx context.Context) error {
		router, _, err := newRouter()
		if err != nil {
			return err
		}

		prompt := strings.Join(args, " ")
		if suggestClub {
			prompt = assistant.EventSuggestionPrompt(prompt)
		}
		return writeJSON(cmd.OutOrStdout(), router.GenerateSuggestion(ctx, prompt))
	})
}

func runModelsCommand(cmd *cobra.Command, _ []string) error {
	return withCommandTelemetry(cmd, func(ctx context.Context) error {
		router, cfg, err := newRouter()
		if err != nil {
			return err
		}
		if !cfg.IsConfigured() {
			fmt.Fprintln(cmd.ErrOrStderr(), llm.MessageNotConfigured)
		}
		return writeJSON(cmd.OutOrStdout(), router.ListCatalog(ctx, modelsHint))
	})
}

// printRouteResult writes the answer and, when verbose, the attempt trace.
func printRouteResult(w io.Writer, res generation.RouteResult, verbose bool) {
	fmt.Fprintln(w, res.Text)
	if !verbose {
		return
	}

	fmt.Fprintln(w, "---")
	kind := string(res.ErrorKind)
	if res.OK() {
		kind = "none"
	}
	fmt.Fprintf(w, "phase: %s  error_kind: %s  attempts: %d\n", res.Phase, kind, len(res.Attempts))
	for i, c := range res.Attempts {
		fmt.Fprintf(w, "%3d. %s\n", i+1, c)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
