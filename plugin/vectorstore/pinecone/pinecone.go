// Package pinecone is a minimal REST client to a Pinecone serverless
// index data plane.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/resonancehq/resonance/plugin/vectorstore"
)

// Index talks to one Pinecone index over its host URL.
type Index struct {
	host   string
	apiKey string
	client *http.Client
}

// Config configures the Pinecone client.
type Config struct {
	// Host is the index data-plane URL, e.g.
	// https://resonance-articles-xxxx.svc.aped-4627-b74a.pinecone.io
	Host    string
	APIKey  string
	Timeout time.Duration
}

// New creates a Pinecone index client.
func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		host:   cfg.Host,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (i *Index) Upsert(ctx context.Context, rec vectorstore.Record) error {
	body := map[string]any{
		"vectors": []map[string]any{{
			"id":       rec.ID,
			"values":   rec.Vector,
			"metadata": rec.Metadata,
		}},
	}
	return i.postJSON(ctx, "/vectors/upsert", body, nil)
}

func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 3
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []struct {
			ID       string            `json:"id"`
			Score    float32           `json:"score"`
			Metadata map[string]string `json:"metadata"`
		} `json:"matches"`
	}
	if err := i.postJSON(ctx, "/query", body, &resp); err != nil {
		return nil, err
	}
	matches := make([]vectorstore.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, vectorstore.Match{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return matches, nil
}

func (i *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if err := i.postJSON(ctx, "/describe_index_stats", map[string]any{}, &resp); err != nil {
		return 0, err
	}
	return resp.TotalVectorCount, nil
}

func (i *Index) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.host+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", i.apiKey)
	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("pinecone POST %s failed: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
