package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/storage"
)

type fakeStore struct {
	rows map[uuid.UUID]*storage.MatchRow // keyed by owner
	err  error
}

func (f *fakeStore) SearchBestMatch(_ context.Context, ownerID uuid.UUID, _ []float32) (*storage.MatchRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[ownerID], nil
}

func TestBestMatchThresholdInclusive(t *testing.T) {
	owner := uuid.New()
	person := uuid.New()

	tests := []struct {
		name  string
		score float32
		want  bool
	}{
		{"above threshold", 0.75, true},
		{"exactly at threshold", 0.6, true},
		{"just below threshold", 0.59999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{rows: map[uuid.UUID]*storage.MatchRow{
				owner: {PersonID: person, Score: tt.score},
			}}
			m := New(store, 0.6)

			got, err := m.BestMatch(context.Background(), owner, []float32{1, 0})
			require.NoError(t, err)
			if tt.want {
				require.NotNil(t, got)
				assert.Equal(t, person, got.PersonID)
				assert.Equal(t, tt.score, got.Score)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestBestMatchNoCandidates(t *testing.T) {
	m := New(&fakeStore{rows: map[uuid.UUID]*storage.MatchRow{}}, 0.6)

	got, err := m.BestMatch(context.Background(), uuid.New(), []float32{1, 0})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBestMatchOwnerScoped(t *testing.T) {
	ownerA := uuid.New()
	personA := uuid.New()
	store := &fakeStore{rows: map[uuid.UUID]*storage.MatchRow{
		ownerA: {PersonID: personA, Score: 0.95},
	}}
	m := New(store, 0.6)

	// another owner never sees ownerA's candidates
	got, err := m.BestMatch(context.Background(), uuid.New(), []float32{1, 0})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBestMatchPropagatesError(t *testing.T) {
	m := New(&fakeStore{err: models.ErrMatchQuery}, 0.6)

	_, err := m.BestMatch(context.Background(), uuid.New(), []float32{1, 0})
	assert.True(t, errors.Is(err, models.ErrMatchQuery))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, CosineDistance([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 1, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 2, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	assert.Equal(t, float32(2), CosineDistance([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float32(2), CosineDistance([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, float32(2), CosineDistance(nil, nil))
}

func TestSuggestionIndex(t *testing.T) {
	owner := uuid.New()
	personA := uuid.New()
	personB := uuid.New()
	faceA := uuid.New()
	faceB := uuid.New()

	idx := NewSuggestionIndex()
	idx.Rebuild(owner, []storage.AssignedFace{
		{FaceID: faceA, PersonID: personA, Embedding: []float32{1, 0, 0}},
		{FaceID: faceB, PersonID: personB, Embedding: []float32{0, 1, 0}},
	})
	require.Equal(t, 2, idx.Count(owner))

	got := idx.Suggest(owner, []float32{0.99, 0.1, 0}, 2)
	require.NotEmpty(t, got)
	assert.Equal(t, personA, got[0].PersonID)

	// unknown owner has no suggestions
	assert.Nil(t, idx.Suggest(uuid.New(), []float32{1, 0, 0}, 2))

	// removed faces stop resolving
	idx.Remove(owner, faceA)
	got = idx.Suggest(owner, []float32{0.99, 0.1, 0}, 2)
	for _, s := range got {
		assert.NotEqual(t, personA, s.PersonID)
	}
}

func TestSuggestionIndexAdd(t *testing.T) {
	owner := uuid.New()
	person := uuid.New()

	idx := NewSuggestionIndex()
	idx.Add(owner, storage.AssignedFace{FaceID: uuid.New(), PersonID: person, Embedding: []float32{0, 0, 1}})

	got := idx.Suggest(owner, []float32{0, 0, 1}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, person, got[0].PersonID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-5)
}
