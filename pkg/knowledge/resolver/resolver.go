// Package resolver assembles the detail view of one knowledge base document
// from several independent, best-effort lookups.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/pkg/elevenlabs"

	"golang.org/x/sync/errgroup"
)

const logModule = "KnowledgeResolver"

// Source is the subset of the external client the resolver depends on.
type Source interface {
	Probe(ctx context.Context, path string) (*elevenlabs.RawResponse, error)
	GetDependents(ctx context.Context, id string) ([]elevenlabs.DependentAgent, error)
	ContentPaths(id string) []string
	DocumentPath(id string) string
}

// Content is the outcome of the content chain. Resolved is false when Text is a placeholder.
type Content struct {
	Text     string
	Resolved bool
	Source   string
}

type Detail struct {
	DocumentID      string
	Content         Content
	Size            *string
	DependentAgents []elevenlabs.DependentAgent
}

type Resolver struct {
	source Source
	logger logger.ILogger
}

func New(source Source, logger logger.ILogger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// Resolve runs the content, size and dependents lookups concurrently. None of
// them can fail the whole; each degrades to a placeholder or empty value.
func (r *Resolver) Resolve(ctx context.Context, id string) *Detail {
	var (
		content    Content
		declared   *string
		dependents []elevenlabs.DependentAgent
	)

	var g errgroup.Group
	g.Go(func() error {
		content = r.ResolveContent(ctx, id)
		return nil
	})
	g.Go(func() error {
		declared = r.declaredSize(ctx, id)
		return nil
	})
	g.Go(func() error {
		dependents = r.ResolveDependents(ctx, id)
		return nil
	})
	_ = g.Wait()

	size := declared
	if size == nil {
		size = sizeFromContent(content)
	}

	return &Detail{
		DocumentID:      id,
		Content:         content,
		Size:            size,
		DependentAgents: dependents,
	}
}

// ResolveContent walks the content endpoints, moving on only when one answers 404.
func (r *Resolver) ResolveContent(ctx context.Context, id string) Content {
	var last *elevenlabs.RawResponse
	for _, path := range r.source.ContentPaths(id) {
		resp, err := r.source.Probe(ctx, path)
		if err != nil {
			r.logger.Warn(logModule, "Content request failed", map[string]interface{}{
				"document_id": id,
				"path":        path,
				"error":       err.Error(),
			})
			return Content{Text: placeholderNetwork(err)}
		}
		last = resp
		if resp.StatusCode == http.StatusNotFound {
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return r.decodeContent(id, path, resp)
		}
		break
	}

	if last == nil {
		return Content{Text: placeholderNotFound(id)}
	}

	r.logger.Warn(logModule, "Content unavailable", map[string]interface{}{
		"document_id": id,
		"status":      last.StatusCode,
	})
	return Content{Text: statusPlaceholder(id, last)}
}

func statusPlaceholder(id string, resp *elevenlabs.RawResponse) string {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return PlaceholderUnauthorized
	case http.StatusForbidden:
		return PlaceholderForbidden
	case http.StatusNotFound:
		return placeholderNotFound(id)
	default:
		return placeholderAPIError(resp.StatusCode, resp.StatusText())
	}
}

func (r *Resolver) decodeContent(id, path string, resp *elevenlabs.RawResponse) Content {
	if strings.Contains(strings.ToLower(resp.ContentType), "json") {
		text, err := extractJSONText(resp.Body)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return Content{Text: PlaceholderNoReadableText, Source: path}
			}
			return Content{Text: text, Resolved: true, Source: path}
		}
		r.logger.Debug(logModule, "JSON content did not parse, falling back to HTML", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
	}

	text, err := extractHTMLText(resp.Body)
	if err != nil || utf8.RuneCountInString(text) < minReadableLength {
		return Content{Text: PlaceholderNoReadableText, Source: path}
	}
	return Content{Text: text, Resolved: true, Source: path}
}

// ResolveSize reports the size declared by the base document, falling back to
// the character count of resolved content, else nil.
func (r *Resolver) ResolveSize(ctx context.Context, id string, content Content) *string {
	if size := r.declaredSize(ctx, id); size != nil {
		return size
	}
	return sizeFromContent(content)
}

func (r *Resolver) declaredSize(ctx context.Context, id string) *string {
	resp, err := r.source.Probe(ctx, r.source.DocumentPath(id))
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil
	}
	for _, key := range []string{"size", "document_size", "length"} {
		if v, ok := truthyScalar(doc[key]); ok {
			return &v
		}
	}
	return nil
}

func sizeFromContent(content Content) *string {
	if !content.Resolved || content.Text == "" {
		return nil
	}
	s := fmt.Sprintf("%d chars", utf8.RuneCountInString(content.Text))
	return &s
}

// truthyScalar renders a string or number, skipping null, false, "" and 0.
func truthyScalar(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		if f, err := t.Float64(); err != nil || f == 0 {
			return "", false
		}
		return t.String(), true
	case bool:
		return "true", t
	default:
		return "", false
	}
}

// ResolveDependents returns the agents using the document, or an empty list on any failure.
func (r *Resolver) ResolveDependents(ctx context.Context, id string) []elevenlabs.DependentAgent {
	agents, err := r.source.GetDependents(ctx, id)
	if err != nil {
		r.logger.Debug(logModule, "Dependent agents unavailable", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
		return []elevenlabs.DependentAgent{}
	}
	if agents == nil {
		return []elevenlabs.DependentAgent{}
	}
	return agents
}
