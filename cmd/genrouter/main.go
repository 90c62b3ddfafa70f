// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command genrouter serves and queries the Gemini generation router.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/genrouter/services/generation"
	"github.com/AleutianAI/genrouter/services/llm"
)

var (
	configPath      string
	debugMode       bool
	telemetryStdout bool
)

var rootCmd = &cobra.Command{
	Use:   "genrouter",
	Short: "Route prompts across Gemini API versions and models",
	Long: `genrouter turns one prompt into one answer from the Google Generative
Language API, walking the configured and fallback API versions and models,
then the provider's own model catalog, until a candidate answers.

Configuration comes from an optional YAML file, .env files and the
GEMINI_API_KEY, GEMINI_API_BASE, GEMINI_API_VERSION, GEMINI_API_MODEL and
GEMINI_ATTEMPT_TIMEOUT environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(debugMode)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML provider configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&telemetryStdout, "telemetry-stdout", false, "Export traces and metrics to stdout")

	rootCmd.AddCommand(serveCmd, askCmd, suggestCmd, modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler: text on a terminal, JSON
// otherwise.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newRouter loads the provider configuration and wires the router to a
// Gemini client.
func newRouter() (*generation.Router, *llm.ProviderConfig, error) {
	cfg, err := llm.LoadProviderConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	client := llm.NewGeminiClient(cfg)
	return generation.NewRouter(cfg, client, client), cfg, nil
}
