// Package gc is the offline maintenance scan that finds and removes
// degenerate near-empty documents. It never runs on the query path.
package gc

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/djia-rag/internal/domain"
	"github.com/kailas-cloud/djia-rag/internal/logger"
)

const (
	scanPageSize = 5000
	// junkThreshold is the maximum trimmed text length considered junk.
	junkThreshold = 3
)

// corpus is the consumer interface for the scan.
type corpus interface {
	Scan(ctx context.Context, p domain.Partition, offset, pageSize int) (ids, texts []string, err error)
	DeleteIDs(ctx context.Context, p domain.Partition, ids []string) (int, error)
}

// Report is the outcome of one scan pass.
type Report struct {
	Scanned int      // documents examined
	JunkIDs []string // near-empty document ids, first-seen order
}

// Service runs the junk-document scan over a partition.
type Service struct {
	corpus corpus
}

// New creates the maintenance service.
func New(c corpus) *Service {
	return &Service{corpus: c}
}

// Scan pages through the whole partition and collects the ids of documents
// whose trimmed text is at or below the junk threshold, deduplicated in
// first-seen order.
func (s *Service) Scan(ctx context.Context, p domain.Partition) (Report, error) {
	var report Report
	seen := make(map[string]struct{})

	for offset := 0; ; offset += scanPageSize {
		ids, texts, err := s.corpus.Scan(ctx, p, offset, scanPageSize)
		if err != nil {
			return Report{}, fmt.Errorf("scan %s at offset %d: %w", p, offset, err)
		}
		if len(ids) == 0 {
			break
		}

		report.Scanned += len(ids)
		for i, id := range ids {
			if len(strings.TrimSpace(texts[i])) > junkThreshold {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			report.JunkIDs = append(report.JunkIDs, id)
		}

		if len(ids) < scanPageSize {
			break
		}
	}

	logger.FromContext(ctx).Info("Junk scan finished",
		zap.String("partition", string(p)),
		zap.Int("scanned", report.Scanned),
		zap.Int("junk", len(report.JunkIDs)))
	return report, nil
}

// Clean scans and deletes the junk documents it finds, returning the number
// removed.
func (s *Service) Clean(ctx context.Context, p domain.Partition) (int, error) {
	report, err := s.Scan(ctx, p)
	if err != nil {
		return 0, err
	}
	if len(report.JunkIDs) == 0 {
		return 0, nil
	}

	n, err := s.corpus.DeleteIDs(ctx, p, report.JunkIDs)
	if err != nil {
		return 0, fmt.Errorf("delete junk in %s: %w", p, err)
	}
	return n, nil
}
