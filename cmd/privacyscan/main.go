// Command privacyscan analyzes text for privacy risk and prints the
// analysis record as JSON. Text comes from stdin, a file, or a public
// profile URL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"PrivacyScanner/internal/app"
	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/logging"
	"PrivacyScanner/internal/usecase"
)

func main() {
	var (
		file         = flag.String("file", "", "read text from this file instead of stdin")
		profileURL   = flag.String("url", "", "fetch and analyze a public profile page")
		recommend    = flag.Bool("recommend", false, "request recommendations even for LOW risk")
		rewrite      = flag.Bool("rewrite", false, "request a privacy-safe rewrite")
		historyLimit = flag.Int("history", 0, "print the N most recent stored analyses and exit")
		prettyOutput = flag.Bool("pretty", true, "indent JSON output")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)
	defer application.Close()
	application.Start(ctx)

	if *historyLimit > 0 {
		analyses, err := application.History(ctx, *historyLimit)
		if err != nil {
			logger.Error("history query failed", "error", err)
			os.Exit(1)
		}
		printJSON(analyses, *prettyOutput)
		return
	}

	req := usecase.AnalyzeRequest{
		IncludeRecommendations: *recommend,
		IncludeRewrite:         *rewrite,
	}

	var analysis domain.Analysis
	switch {
	case *profileURL != "":
		result, err := application.AnalyzeProfile(ctx, *profileURL, req)
		if err != nil {
			logger.Error("profile analysis failed", "url", *profileURL, "error", err)
			os.Exit(1)
		}
		analysis = result
	default:
		text, err := readText(*file)
		if err != nil {
			logger.Error("read input failed", "error", err)
			os.Exit(1)
		}
		req.Text = text
		analysis = application.Analyze(ctx, req)
	}

	printJSON(analysis, *prettyOutput)
}

func readText(path string) (string, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(raw), nil
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(raw), nil
}

func printJSON(v any, pretty bool) {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "encode output:", err)
		os.Exit(1)
	}
}
