package domain

// Partition is a logically separate document collection in the vector store.
type Partition string

const (
	// PartitionPrices holds daily OHLCV price documents.
	PartitionPrices Partition = "prices"
	// PartitionNews holds headline documents.
	PartitionNews Partition = "news"
)

// Metadata field names shared between ingestion and retrieval.
const (
	FieldTicker       = "ticker"
	FieldDocType      = "doc_type"
	FieldDate         = "date"
	FieldDateNum      = "date_num"
	FieldPublishedAt  = "published_at"
	FieldPublishedNum = "published_num"
	FieldPubMissing   = "published_at_missing"
	FieldPublisher    = "publisher"
	FieldSource       = "source"
	FieldSourceURL    = "source_url"
)

// Document is the unit of indexing. ID is deterministic and acts as the
// idempotency key: re-ingesting the same underlying fact overwrites rather
// than duplicates.
type Document struct {
	ID       string
	Text     string
	Tags     map[string]string
	Numerics map[string]float64
	Vector   []float32
}

// RecencyKey returns the document's numeric recency key for its partition
// (date_num for prices, published_num for news). 0 means unknown.
func (d Document) RecencyKey(p Partition) int {
	field := FieldDateNum
	if p == PartitionNews {
		field = FieldPublishedNum
	}
	return int(d.Numerics[field])
}

// Hit is a single similarity-search result. Distance is a non-negative
// dissimilarity score: lower is closer.
type Hit struct {
	ID       string
	Text     string
	Tags     map[string]string
	Numerics map[string]float64
	Distance float64
}

// RecencyKey returns the hit's numeric recency key, preferring published_num
// (news) over date_num (prices).
func (h Hit) RecencyKey() int {
	if v, ok := h.Numerics[FieldPublishedNum]; ok {
		return int(v)
	}
	return int(h.Numerics[FieldDateNum])
}
