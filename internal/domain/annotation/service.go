package annotation

import (
	"context"
	"fmt"
	"log"
	"time"

	"arca/internal/domain/transaction"
)

const (
	defaultLookback  = 90 * 24 * time.Hour
	defaultBatchSize = 200
)

// Service runs the annotation pass over freshly synced transactions.
type Service struct {
	transactions transaction.Repository
	analyzer     *Analyzer
}

// NewService creates an annotation service.
func NewService(transactions transaction.Repository, analyzer *Analyzer) *Service {
	return &Service{transactions: transactions, analyzer: analyzer}
}

// AnnotateRecent annotates the user's recent transactions that have no AI
// category yet. Returns how many were annotated. Per-row failures abort the
// pass; the next run picks up where this one stopped since annotated rows
// drop out of the unannotated listing.
func (s *Service) AnnotateRecent(ctx context.Context, userID int64) (int, error) {
	since := time.Now().Add(-defaultLookback)
	pending, err := s.transactions.ListUnannotated(ctx, userID, since, defaultBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unannotated transactions: %w", err)
	}

	annotated := 0
	for _, tx := range pending {
		ann := s.analyzer.Analyze(tx)
		params := transaction.AnnotationParams{
			Category:  &ann.Category,
			Sentiment: &ann.Sentiment,
			Tags:      ann.Tags,
		}
		if _, err := s.transactions.UpdateAnnotations(ctx, tx.ID, userID, params); err != nil {
			return annotated, fmt.Errorf("failed to annotate transaction %d: %w", tx.ID, err)
		}
		annotated++
	}

	if annotated > 0 {
		log.Printf("User %d: annotated %d transactions", userID, annotated)
	}
	return annotated, nil
}

// Annotate writes user-supplied annotations for a single transaction.
func (s *Service) Annotate(ctx context.Context, id, userID int64, params transaction.AnnotationParams) (*transaction.Transaction, error) {
	tx, err := s.transactions.UpdateAnnotations(ctx, id, userID, params)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
