// Package matcher decides which known person, if any, a face embedding
// belongs to.
package matcher

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/storage"
)

// Store is the vector-search surface the matcher needs.
type Store interface {
	SearchBestMatch(ctx context.Context, ownerID uuid.UUID, embedding []float32) (*storage.MatchRow, error)
}

// Match is a resolved identity with its cosine similarity score.
type Match struct {
	PersonID uuid.UUID
	Score    float32
}

// Matcher resolves embeddings against an owner's assigned faces using a
// fixed similarity threshold.
type Matcher struct {
	store     Store
	threshold float32
}

func New(store Store, threshold float32) *Matcher {
	return &Matcher{store: store, threshold: threshold}
}

// BestMatch returns the closest known person when their similarity meets the
// threshold, inclusive. A score exactly at the threshold matches. No
// candidate, or the best one scoring below the threshold, yields nil.
func (m *Matcher) BestMatch(ctx context.Context, ownerID uuid.UUID, embedding []float32) (*Match, error) {
	row, err := m.store.SearchBestMatch(ctx, ownerID, embedding)
	if err != nil {
		return nil, err
	}
	if row == nil || row.Score < m.threshold {
		return nil, nil
	}
	return &Match{PersonID: row.PersonID, Score: row.Score}, nil
}

// Threshold returns the configured similarity cutoff.
func (m *Matcher) Threshold() float32 {
	return m.threshold
}
