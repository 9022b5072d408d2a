// Package corpus persists price and news documents as Redis hashes under
// per-partition FT indexes and serves filtered KNN retrieval over them.
package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/djia-rag/internal/db"
	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
)

// deleteBatchSize caps how many keys a single pipelined DEL round-trip carries.
const deleteBatchSize = 100

// deleteScanPage is the FT.SEARCH page size used when resolving keys for
// filtered deletion.
const deleteScanPage = 5000

// store is the consumer interface for the corpus (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchFilter(ctx context.Context, index string, filters db.FilterExpr, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config holds corpus layout parameters.
type Config struct {
	Prefix      string // key namespace, e.g. "djia:"
	VectorDim   int
	HNSWM       int
	EFConstruct int
}

// Repo implements document persistence and retrieval for both partitions.
type Repo struct {
	store store
	cfg   Config
}

// New creates a corpus repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndexes creates the per-partition FT indexes if they do not exist yet.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, p := range []domain.Partition{domain.PartitionPrices, domain.PartitionNews} {
		exists, err := r.store.IndexExists(ctx, r.indexName(p))
		if err != nil {
			return fmt.Errorf("probe index %s: %w", r.indexName(p), err)
		}
		if exists {
			continue
		}

		def, err := r.indexDefinition(p)
		if err != nil {
			return fmt.Errorf("define index %s: %w", r.indexName(p), err)
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", r.indexName(p), err)
		}
	}
	return nil
}

func (r *Repo) indexDefinition(p domain.Partition) (*db.IndexDefinition, error) {
	b := db.NewIndex(r.indexName(p)).
		Prefix(r.keyPrefix(p)).
		Tag(domain.FieldTicker).
		Tag(domain.FieldDocType)

	switch p {
	case domain.PartitionPrices:
		b.Numeric(domain.FieldDateNum)
	case domain.PartitionNews:
		b.Numeric(domain.FieldPublishedNum)
	}

	b.VectorHNSW(fieldVector, r.cfg.VectorDim, db.DistanceCosine, r.cfg.HNSWM, r.cfg.EFConstruct)
	return b.Build()
}

// UpsertBatch writes documents in a single pipelined round-trip. Deterministic
// IDs make the write idempotent: an existing key is overwritten in place.
func (r *Repo) UpsertBatch(ctx context.Context, p domain.Partition, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.Text == "" {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrEmptyDocument)
		}
		if len(doc.Vector) != r.cfg.VectorDim {
			return fmt.Errorf("document %s: got dim %d, want %d: %w",
				doc.ID, len(doc.Vector), r.cfg.VectorDim, domain.ErrVectorDimMismatch)
		}
		items = append(items, db.HashSetItem{
			Key:    r.docKey(p, doc.ID),
			Fields: buildHashFields(doc),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert batch %s: %w", p, err)
	}
	return nil
}

// Query runs a filtered KNN search and returns hits ordered by distance.
func (r *Repo) Query(
	ctx context.Context, p domain.Partition, vector []float32, filters filter.Expression, k int,
) ([]domain.Hit, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: r.indexName(p),
		Filters:   filters,
		Vector:    vector,
		K:         k,
		RawScores: true,
	})
	if err != nil {
		return nil, fmt.Errorf("knn %s: %w", p, err)
	}

	hits := make([]domain.Hit, 0, len(result.Entries))
	for _, entry := range result.Entries {
		hit := parseHit(r.docID(p, entry.Key), entry.Fields)
		hit.Distance = entry.Score
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteWhere removes every document matching the filter and returns the
// number of keys deleted. Key resolution pages through FT.SEARCH; deletions go
// out in fixed-size pipelined batches.
func (r *Repo) DeleteWhere(ctx context.Context, p domain.Partition, filters filter.Expression) (int, error) {
	deleted := 0
	for {
		result, err := r.store.SearchFilter(
			ctx, r.indexName(p), filters, 0, deleteScanPage, []string{domain.FieldTicker},
		)
		if err != nil {
			return deleted, fmt.Errorf("resolve keys %s: %w", p, err)
		}
		if len(result.Entries) == 0 {
			return deleted, nil
		}

		keys := make([]string, 0, len(result.Entries))
		for _, entry := range result.Entries {
			keys = append(keys, entry.Key)
		}

		n, err := r.deleteKeys(ctx, keys)
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("delete batch %s: %w", p, err)
		}

		if len(result.Entries) < deleteScanPage {
			return deleted, nil
		}
	}
}

// DeleteIDs removes documents by ID in fixed-size batches and returns the
// number of keys actually deleted.
func (r *Repo) DeleteIDs(ctx context.Context, p domain.Partition, ids []string) (int, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.docKey(p, id))
	}

	deleted, err := r.deleteKeys(ctx, keys)
	if err != nil {
		return deleted, fmt.Errorf("delete ids %s: %w", p, err)
	}
	return deleted, nil
}

func (r *Repo) deleteKeys(ctx context.Context, keys []string) (int, error) {
	deleted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		n, err := r.store.DelMulti(ctx, keys[start:end])
		deleted += n
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// Scan returns one page of document IDs and texts, for housekeeping sweeps.
func (r *Repo) Scan(ctx context.Context, p domain.Partition, offset, pageSize int) ([]string, []string, error) {
	result, err := r.store.SearchList(
		ctx, r.indexName(p), "*", offset, pageSize, []string{fieldContent},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", p, err)
	}

	ids := make([]string, 0, len(result.Entries))
	texts := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		ids = append(ids, r.docID(p, entry.Key))
		texts = append(texts, entry.Fields[fieldContent])
	}
	return ids, texts, nil
}

// Count returns the number of documents in a partition.
func (r *Repo) Count(ctx context.Context, p domain.Partition) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(p), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", p, err)
	}
	return n, nil
}

func (r *Repo) keyPrefix(p domain.Partition) string {
	return r.cfg.Prefix + string(p) + ":"
}

func (r *Repo) indexName(p domain.Partition) string {
	return r.keyPrefix(p) + "idx"
}

func (r *Repo) docKey(p domain.Partition, id string) string {
	return r.keyPrefix(p) + id
}

func (r *Repo) docID(p domain.Partition, key string) string {
	prefix := r.keyPrefix(p)
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
