// Package vectorstore defines the article vector index consumed by the
// similarity retriever. Backends: a hosted Pinecone index and an embedded
// chromem-go index persisted under the data directory.
package vectorstore

import "context"

// Record is an article embedding plus its display metadata. The id is a
// deterministic hash of the article URL, so re-storing the same article
// overwrites the prior record.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Match is a single nearest-neighbor hit, in descending similarity order.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Index is implemented by each vector index backend.
type Index interface {
	Upsert(ctx context.Context, rec Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}
