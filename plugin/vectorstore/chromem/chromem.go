// Package chromem backs the article vector index with an embedded
// chromem-go database, for running without a hosted index.
package chromem

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"

	"github.com/resonancehq/resonance/plugin/vectorstore"
)

const collectionName = "articles"

// Index wraps chromem-go with disk persistence. Embeddings are always
// supplied by the caller, so no embedding function is configured.
type Index struct {
	mu  sync.RWMutex
	db  *chromemgo.DB
	col *chromemgo.Collection
}

// New opens (or creates) the persistent index at dataDir/vectorstore/.
func New(dataDir string) (*Index, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.Wrap(err, "create vectorstore dir")
	}
	db, err := chromemgo.NewPersistentDB(dir, false)
	if err != nil {
		return nil, errors.Wrap(err, "open vectorstore")
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open article collection")
	}
	return &Index{db: db, col: col}, nil
}

func (i *Index) Upsert(ctx context.Context, rec vectorstore.Record) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.col.AddDocument(ctx, chromemgo.Document{
		ID:        rec.ID,
		Embedding: rec.Vector,
		Metadata:  rec.Metadata,
		Content:   rec.Metadata["summary"],
	})
}

func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count := i.col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	results, err := i.col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, err
	}
	matches := make([]vectorstore.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, vectorstore.Match{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: r.Metadata,
		})
	}
	return matches, nil
}

func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.col.Count(), nil
}
