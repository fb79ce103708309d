package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HOZHENWAI/hydrus/internal/config"
	"github.com/HOZHENWAI/hydrus/network"
	"github.com/HOZHENWAI/hydrus/pageparser"
	"github.com/HOZHENWAI/hydrus/reduce"
	"github.com/HOZHENWAI/hydrus/serialize"
)

type parseResult struct {
	Tags []string   `json:"tags"`
	URLs [][]string `json:"urls"`
}

func newParseCmd(configPath *string) *cobra.Command {
	var parserPath, docPath, seedURL string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Run a serialised page parser against a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), *configPath, parserPath, docPath, seedURL)
		},
	}

	cmd.Flags().StringVar(&parserPath, "parser", "", "path to a serialised page_parser XML document (required)")
	cmd.Flags().StringVar(&docPath, "file", "", "path to a local HTML document to parse instead of fetching")
	cmd.Flags().StringVar(&seedURL, "url", "", "URL to fetch and parse")
	_ = cmd.MarkFlagRequired("parser")

	return cmd
}

func runParse(ctx context.Context, configPath, parserPath, docPath, seedURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	parser, err := loadPageParser(parserPath)
	if err != nil {
		return err
	}

	data, err := loadDocument(ctx, cfg, docPath, seedURL)
	if err != nil {
		return err
	}

	engine := network.NewHTTPEngine(&http.Client{Timeout: time.Duration(cfg.Network.TimeoutSeconds) * time.Second})
	job := network.NewSimpleJob()

	_, flat, err := parser.Parse(ctx, job, engine, data, seedURL)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	tags, warn := reduce.ReduceTags(flat)
	if warn != nil {
		fmt.Fprintln(os.Stderr, warn)
	}
	urls := reduce.ReduceURLs(flat)

	return printParseResult(cfg.Output.Format, parseResult{Tags: tags, URLs: urls})
}

func loadPageParser(path string) (*pageparser.Parser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parser %q: %w", path, err)
	}
	root, err := serialize.ReadDocument(string(raw))
	if err != nil {
		return nil, fmt.Errorf("read parser %q: %w", path, err)
	}
	return serialize.DeserializePageParser(root)
}

func loadDocument(ctx context.Context, cfg config.Config, docPath, seedURL string) (string, error) {
	if docPath != "" {
		raw, err := os.ReadFile(docPath)
		if err != nil {
			return "", fmt.Errorf("read document %q: %w", docPath, err)
		}
		return string(raw), nil
	}
	if seedURL == "" {
		return "", fmt.Errorf("one of --file or --url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seedURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %q: %w", seedURL, err)
	}
	req.Header.Set("User-Agent", cfg.Network.UserAgent)

	client := &http.Client{Timeout: time.Duration(cfg.Network.TimeoutSeconds) * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", seedURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %q: %w", seedURL, err)
	}
	return string(body), nil
}

func printParseResult(format string, r parseResult) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	for _, t := range r.Tags {
		fmt.Println("tag:", t)
	}
	for i, group := range r.URLs {
		for _, u := range group {
			fmt.Printf("url[%d]: %s\n", i, u)
		}
	}
	return nil
}
