// Package search provides the google_search tool backed by the Google Custom
// Search JSON API.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/tailored-agentic-units/chatgraph/core/protocol"
	"github.com/tailored-agentic-units/chatgraph/tools"
)

// ErrNotConfigured is returned by New when the API key or engine id is missing.
var ErrNotConfigured = errors.New("google search requires an API key and engine id")

const noResults = "No good Google Search Result was found"

// Tool describes google_search to the model.
var Tool = protocol.Tool{
	Name:        "google_search",
	Description: "Search Google for recent results.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []string{"query"},
	},
}

// Hit is one search result.
type Hit struct {
	Title   string
	Link    string
	Snippet string
}

// Searcher queries one programmable search engine.
type Searcher struct {
	svc     *customsearch.Service
	cx      string
	results int64
}

// New creates a Searcher. Extra client options are appended after the ones
// derived from cfg.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Searcher, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, ErrNotConfigured
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search client: %w", err)
	}

	return &Searcher{
		svc:     svc,
		cx:      cfg.EngineID,
		results: int64(cfg.Results),
	}, nil
}

// Search runs query and returns at most the configured number of hits.
func (s *Searcher) Search(ctx context.Context, query string) ([]Hit, error) {
	call := s.svc.Cse.List().Cx(s.cx).Q(query).Context(ctx)
	if s.results > 0 {
		call = call.Num(s.results)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("google search %q: %w", query, err)
	}

	hits := make([]Hit, 0, len(resp.Items))
	for _, item := range resp.Items {
		hits = append(hits, Hit{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return hits, nil
}

// Handler adapts the Searcher to a tool handler. A missing query is reported
// to the model as an error result; API failures are returned as errors.
func (s *Searcher) Handler() tools.Handler {
	return func(ctx context.Context, raw json.RawMessage) (tools.Result, error) {
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return tools.Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
		}
		if strings.TrimSpace(args.Query) == "" {
			return tools.Result{Content: "query is required", IsError: true}, nil
		}

		hits, err := s.Search(ctx, args.Query)
		if err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Content: Format(hits)}, nil
	}
}

// Register adds google_search to r.
func (s *Searcher) Register(r *tools.Registry) error {
	return r.Register(Tool, s.Handler())
}

// Format renders hits as the text handed back to the model.
func Format(hits []Hit) string {
	if len(hits) == 0 {
		return noResults
	}

	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n%s", i+1, h.Title, h.Link, strings.TrimSpace(h.Snippet))
	}
	return b.String()
}
