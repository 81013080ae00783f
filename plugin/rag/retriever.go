// Package rag implements similarity retrieval over previously-read
// articles: embed the query, ask the vector index for neighbors, keep the
// ones above the similarity threshold.
package rag

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/resonancehq/resonance/plugin/llm"
	"github.com/resonancehq/resonance/plugin/vectorstore"
)

const (
	// similarityThreshold filters out weak matches. Scores at or below it
	// are discarded.
	similarityThreshold = 0.7

	// Metadata stored alongside each vector is truncated so records stay
	// small.
	maxSummaryMetadataChars = 1000
	maxContentPreviewChars  = 500
)

// SimilarArticle is one retrieved match, ready for prompt context.
type SimilarArticle struct {
	Title      string
	Summary    string
	URL        string
	Similarity float32
}

// Retriever combines the embedding client with the vector index.
type Retriever struct {
	llm   llm.Client
	index vectorstore.Index
}

// NewRetriever creates a retriever; both collaborators must be non-nil.
func NewRetriever(client llm.Client, index vectorstore.Index) *Retriever {
	return &Retriever{llm: client, index: index}
}

// ArticleID returns the stable vector id for an article URL, so that
// re-summarizing the same URL overwrites its record.
func ArticleID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// RetrieveSimilar returns up to topK previously-stored articles scoring
// strictly above the threshold against the query, best first. Any failure
// degrades to an empty result.
func (r *Retriever) RetrieveSimilar(ctx context.Context, query string, topK int) []SimilarArticle {
	vector, err := r.llm.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed", "err", err)
		return nil
	}
	matches, err := r.index.Query(ctx, vector, topK)
	if err != nil {
		slog.Warn("vector index query failed", "err", err)
		return nil
	}

	articles := make([]SimilarArticle, 0, len(matches))
	for _, m := range matches {
		if m.Score <= similarityThreshold {
			continue
		}
		title := m.Metadata["title"]
		if title == "" {
			title = "Unknown"
		}
		articles = append(articles, SimilarArticle{
			Title:      title,
			Summary:    m.Metadata["summary"],
			URL:        m.Metadata["url"],
			Similarity: m.Score,
		})
	}
	return articles
}

// StoreArticle embeds title+summary and upserts the article record under
// the given id. Returns false instead of an error on any failure.
func (r *Retriever) StoreArticle(ctx context.Context, id, title, url, content, summary string) bool {
	vector, err := r.llm.Embed(ctx, title+"\n\n"+summary)
	if err != nil {
		slog.Warn("article embedding failed", "title", title, "err", err)
		return false
	}
	rec := vectorstore.Record{
		ID:     id,
		Vector: vector,
		Metadata: map[string]string{
			"title":           title,
			"url":             url,
			"summary":         truncate(summary, maxSummaryMetadataChars),
			"timestamp":       time.Now().Format(time.RFC3339),
			"content_preview": truncate(content, maxContentPreviewChars),
		},
	}
	if err := r.index.Upsert(ctx, rec); err != nil {
		slog.Warn("article upsert failed", "title", title, "err", err)
		return false
	}
	slog.Info("stored article in vector index", "title", title, "id", id)
	return true
}

// Count reports the number of stored article vectors, 0 on failure.
func (r *Retriever) Count(ctx context.Context) int {
	n, err := r.index.Count(ctx)
	if err != nil {
		slog.Warn("vector index stats failed", "err", err)
		return 0
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
