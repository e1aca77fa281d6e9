package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var (
	_ driven.VectorIndex        = (*VectorIndex)(nil)
	_ driven.VectorIndexFactory = (*VectorIndexFactory)(nil)
)

// VectorIndexFactory creates request-scoped RediSearch vector indexes.
// Each index gets a unique name so concurrent requests never collide.
type VectorIndexFactory struct {
	client     *redis.Client
	dimensions int
	counter    atomic.Uint64
}

// NewVectorIndexFactory creates a new VectorIndexFactory. dimensions
// must match the embedding service in use.
func NewVectorIndexFactory(client *redis.Client, dimensions int) *VectorIndexFactory {
	return &VectorIndexFactory{client: client, dimensions: dimensions}
}

// New creates a fresh vector index. Failure here means the backend is
// unreachable or lacks the search module; callers fall back to a local
// index.
func (f *VectorIndexFactory) New(ctx context.Context) (driven.VectorIndex, error) {
	name := fmt.Sprintf("vecidx:%d:%d", time.Now().UnixNano(), f.counter.Add(1))
	prefix := name + ":"

	err := f.client.FTCreate(ctx, name,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []any{prefix},
		},
		&redis.FieldSchema{
			FieldName: "embedding",
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            f.dimensions,
					DistanceMetric: "COSINE",
				},
			},
		},
		&redis.FieldSchema{
			FieldName: "content",
			FieldType: redis.SearchFieldTypeText,
		},
	).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	return &VectorIndex{client: f.client, name: name, prefix: prefix}, nil
}

// VectorIndex implements driven.VectorIndex on a RediSearch index
type VectorIndex struct {
	client *redis.Client
	name   string
	prefix string
}

// IndexBatch writes one hash per document: the embedding blob, the text
// and the flattened metadata. Lists are flattened to delimited strings
// because hash fields hold scalars only.
func (v *VectorIndex) IndexBatch(ctx context.Context, docs []domain.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("%w: %d documents with %d embeddings", domain.ErrInvalidInput, len(docs), len(embeddings))
	}

	pipe := v.client.Pipeline()
	for i, doc := range docs {
		fields := map[string]any{
			"embedding": vectorBlob(embeddings[i]),
			"content":   doc.Text,
		}
		for key, value := range domain.FlattenMetadata(doc.Metadata) {
			fields["meta_"+key] = fmt.Sprintf("%v", value)
		}
		pipe.HSet(ctx, v.prefix+doc.ID, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	return nil
}

// Search runs a KNN query and returns document ids with similarity
// scores, best first
func (v *VectorIndex) Search(ctx context.Context, embedding []float32, k int) ([]string, []float64, error) {
	if k <= 0 {
		return nil, nil, nil
	}

	res, err := v.client.FTSearchWithArgs(ctx, v.name,
		fmt.Sprintf("*=>[KNN %d @embedding $vec AS dist]", k),
		&redis.FTSearchOptions{
			Return:         []redis.FTSearchReturn{{FieldName: "dist"}},
			SortBy:         []redis.FTSearchSortBy{{FieldName: "dist", Asc: true}},
			DialectVersion: 2,
			Params:         map[string]any{"vec": vectorBlob(embedding)},
			LimitOffset:    0,
			Limit:          k,
		},
	).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	ids := make([]string, 0, len(res.Docs))
	scores := make([]float64, 0, len(res.Docs))
	for _, doc := range res.Docs {
		ids = append(ids, doc.ID[len(v.prefix):])
		dist, _ := strconv.ParseFloat(doc.Fields["dist"], 64)
		// Cosine distance to similarity
		scores = append(scores, 1-dist)
	}
	return ids, scores, nil
}

// Drop removes the index together with its document hashes
func (v *VectorIndex) Drop(ctx context.Context) error {
	err := v.client.FTDropIndexWithArgs(ctx, v.name, &redis.FTDropIndexOptions{DeleteDocs: true}).Err()
	if err != nil {
		return fmt.Errorf("failed to drop vector index: %w", err)
	}
	return nil
}

// vectorBlob encodes a vector as the little-endian float32 byte string
// RediSearch expects
func vectorBlob(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
