package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/djia-rag/internal/db"
	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/domain/filter"
)

// --- EnsureIndexes ---

func TestEnsureIndexes_CreatesBoth(t *testing.T) {
	repo, ms := newTestRepo(t)

	var created []string
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = append(created, def.Name)
		return nil
	}

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 indexes, got %d: %v", len(created), created)
	}
	if created[0] != "djia:prices:idx" || created[1] != "djia:news:idx" {
		t.Errorf("unexpected index names: %v", created)
	}
}

func TestEnsureIndexes_SkipsExisting(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Fatal("CreateIndex should not be called")
		return nil
	}

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndexes_PartitionRecencyFields(t *testing.T) {
	repo, ms := newTestRepo(t)

	defs := map[string]*db.IndexDefinition{}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		defs[def.Name] = def
		return nil
	}

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hasField := func(def *db.IndexDefinition, name string) bool {
		for _, f := range def.Fields {
			if f.Name == name {
				return true
			}
		}
		return false
	}

	if !hasField(defs["djia:prices:idx"], domain.FieldDateNum) {
		t.Error("prices index missing date_num")
	}
	if !hasField(defs["djia:news:idx"], domain.FieldPublishedNum) {
		t.Error("news index missing published_num")
	}
}

// --- UpsertBatch ---

func TestUpsertBatch_WritesHashes(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		got = items
		return nil
	}

	docs := []domain.Document{testPriceDoc(t, "AAPL_2026-08-28")}
	if err := repo.UpsertBatch(context.Background(), domain.PartitionPrices, docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Key != "djia:prices:AAPL_2026-08-28" {
		t.Errorf("unexpected key: %s", got[0].Key)
	}
	if got[0].Fields[fieldContent] == "" {
		t.Error("missing content field")
	}
	if got[0].Fields[domain.FieldTicker] != "AAPL" {
		t.Errorf("unexpected ticker: %q", got[0].Fields[domain.FieldTicker])
	}
	if got[0].Fields[domain.FieldDateNum] != "20260828" {
		t.Errorf("unexpected date_num: %q", got[0].Fields[domain.FieldDateNum])
	}
	if len(got[0].Fields[fieldVector]) != 16 {
		t.Errorf("expected 16-byte vector blob, got %d bytes", len(got[0].Fields[fieldVector]))
	}
}

func TestUpsertBatch_RejectsEmptyText(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("HSetMulti should not be called")
		return nil
	}

	doc := testPriceDoc(t, "AAPL_2026-08-28")
	doc.Text = ""
	err := repo.UpsertBatch(context.Background(), domain.PartitionPrices, []domain.Document{doc})
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestUpsertBatch_RejectsDimMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)

	doc := testPriceDoc(t, "AAPL_2026-08-28")
	doc.Vector = []float32{0.1}
	err := repo.UpsertBatch(context.Background(), domain.PartitionPrices, []domain.Document{doc})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestUpsertBatch_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("HSetMulti should not be called")
		return nil
	}
	if err := repo.UpsertBatch(context.Background(), domain.PartitionPrices, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Query ---

func TestQuery_ParsesHits(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "djia:news:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if !q.RawScores {
			t.Error("expected RawScores=true")
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{
					Key:   "djia:news:AAPL_news_2026-08-28_ab12cd34",
					Score: 0.22,
					Fields: map[string]string{
						fieldContent:             "Título: iPhone record",
						domain.FieldTicker:       "AAPL",
						domain.FieldPublishedNum: "20260828",
						domain.FieldPublisher:    "Reuters",
					},
				},
			},
		}, nil
	}

	hits, err := repo.Query(
		context.Background(), domain.PartitionNews,
		[]float32{0.1, 0.2, 0.3, 0.4}, filter.Expression{}, 12,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	h := hits[0]
	if h.ID != "AAPL_news_2026-08-28_ab12cd34" {
		t.Errorf("unexpected id: %s", h.ID)
	}
	if h.Distance != 0.22 {
		t.Errorf("unexpected distance: %f", h.Distance)
	}
	if h.Tags[domain.FieldPublisher] != "Reuters" {
		t.Errorf("unexpected publisher: %q", h.Tags[domain.FieldPublisher])
	}
	if h.RecencyKey() != 20260828 {
		t.Errorf("unexpected recency key: %d", h.RecencyKey())
	}
}

func TestQuery_Error(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("timeout")
	}

	_, err := repo.Query(
		context.Background(), domain.PartitionPrices,
		[]float32{0.1, 0.2, 0.3, 0.4}, filter.Expression{}, 60,
	)
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- DeleteWhere / DeleteIDs ---

func TestDeleteWhere_PagesAndBatches(t *testing.T) {
	repo, ms := newTestRepo(t)

	entries := make([]db.SearchEntry, 150)
	for i := range entries {
		entries[i] = db.SearchEntry{Key: "djia:prices:doc"}
	}

	calls := 0
	ms.searchFilterFn = func(
		_ context.Context, index string, _ db.FilterExpr, offset, limit int, _ []string,
	) (*db.SearchResult, error) {
		calls++
		if calls > 1 {
			return &db.SearchResult{}, nil
		}
		if index != "djia:prices:idx" {
			t.Errorf("unexpected index: %s", index)
		}
		if offset != 0 || limit != deleteScanPage {
			t.Errorf("unexpected page: offset=%d limit=%d", offset, limit)
		}
		return &db.SearchResult{Total: 150, Entries: entries}, nil
	}

	var batchSizes []int
	ms.delMultiFn = func(_ context.Context, keys []string) (int, error) {
		batchSizes = append(batchSizes, len(keys))
		return len(keys), nil
	}

	cutoff := filter.And(filter.InRange(domain.FieldDateNum, filter.LT(20260801)))
	n, err := repo.DeleteWhere(context.Background(), domain.PartitionPrices, cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 150 {
		t.Errorf("expected 150 deleted, got %d", n)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 100 || batchSizes[1] != 50 {
		t.Errorf("unexpected batch sizes: %v", batchSizes)
	}
}

func TestDeleteIDs_PrependsKeyPrefix(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got []string
	ms.delMultiFn = func(_ context.Context, keys []string) (int, error) {
		got = append(got, keys...)
		return len(keys), nil
	}

	n, err := repo.DeleteIDs(context.Background(), domain.PartitionNews, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if got[0] != "djia:news:a" || got[1] != "djia:news:b" {
		t.Errorf("unexpected keys: %v", got)
	}
}

// --- Scan ---

func TestScan_ReturnsIDsAndTexts(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(
		_ context.Context, index, query string, offset, limit int, fields []string,
	) (*db.SearchResult, error) {
		if query != "*" {
			t.Errorf("unexpected query: %q", query)
		}
		if offset != 5000 || limit != 5000 {
			t.Errorf("unexpected page: offset=%d limit=%d", offset, limit)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "djia:news:n1", Fields: map[string]string{fieldContent: "Título: algo"}},
				{Key: "djia:news:n2", Fields: map[string]string{fieldContent: "-"}},
			},
		}, nil
	}

	ids, texts, err := repo.Scan(context.Background(), domain.PartitionNews, 5000, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "n1" || ids[1] != "n2" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if texts[1] != "-" {
		t.Errorf("unexpected text: %q", texts[1])
	}
}
