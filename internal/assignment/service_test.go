package assignment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/your-org/faceid/internal/matcher"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/storage"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetFaceWithOwner(ctx context.Context, faceID uuid.UUID) (*models.FaceDetection, uuid.UUID, error) {
	args := m.Called(ctx, faceID)
	var face *models.FaceDetection
	if args.Get(0) != nil {
		face = args.Get(0).(*models.FaceDetection)
	}
	return face, args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *mockStore) GetPersonByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	args := m.Called(ctx, id)
	var person *models.Person
	if args.Get(0) != nil {
		person = args.Get(0).(*models.Person)
	}
	return person, args.Error(1)
}

func (m *mockStore) GetConfirmedAssignmentForFace(ctx context.Context, faceID uuid.UUID) (*models.Assignment, error) {
	args := m.Called(ctx, faceID)
	var a *models.Assignment
	if args.Get(0) != nil {
		a = args.Get(0).(*models.Assignment)
	}
	return a, args.Error(1)
}

func (m *mockStore) ConfirmAssignment(ctx context.Context, ownerID, faceID, photoID, personID uuid.UUID) error {
	return m.Called(ctx, ownerID, faceID, photoID, personID).Error(0)
}

func (m *mockStore) ClearFaceAssignment(ctx context.Context, faceID uuid.UUID) error {
	return m.Called(ctx, faceID).Error(0)
}

func (m *mockStore) IgnoreFace(ctx context.Context, ownerID, faceID uuid.UUID) error {
	return m.Called(ctx, ownerID, faceID).Error(0)
}

func (m *mockStore) ListUnassignedFaces(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.UnassignedFace, int, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	var faces []models.UnassignedFace
	if args.Get(0) != nil {
		faces = args.Get(0).([]models.UnassignedFace)
	}
	return faces, args.Int(1), args.Error(2)
}

func (m *mockStore) ListAssignedFaces(ctx context.Context, ownerID uuid.UUID) ([]storage.AssignedFace, error) {
	args := m.Called(ctx, ownerID)
	var faces []storage.AssignedFace
	if args.Get(0) != nil {
		faces = args.Get(0).([]storage.AssignedFace)
	}
	return faces, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReindex(ctx context.Context, ev models.ReindexEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func TestAssign(t *testing.T) {
	ownerID := uuid.New()
	faceID := uuid.New()
	photoID := uuid.New()
	personID := uuid.New()
	otherPersonID := uuid.New()

	face := func(assignedTo *uuid.UUID) *models.FaceDetection {
		return &models.FaceDetection{ID: faceID, PhotoID: photoID, PersonID: assignedTo, Embedding: []float32{1, 0}}
	}
	person := &models.Person{ID: personID, OwnerID: ownerID, Name: "Alice"}

	tests := []struct {
		name    string
		setup   func(store *mockStore, pub *mockPublisher)
		wantErr error
	}{
		{
			name: "confirms unassigned face",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(nil), ownerID, nil)
				store.On("GetPersonByID", mock.Anything, personID).Return(person, nil)
				store.On("GetConfirmedAssignmentForFace", mock.Anything, faceID).Return(nil, nil)
				store.On("ConfirmAssignment", mock.Anything, ownerID, faceID, photoID, personID).Return(nil)
				pub.On("PublishReindex", mock.Anything, models.ReindexEvent{PhotoID: photoID}).Return(nil)
			},
		},
		{
			name: "overrides a wrong automatic match",
			setup: func(store *mockStore, pub *mockPublisher) {
				// the pipeline linked the face to someone else, but no human
				// ever confirmed it
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(&otherPersonID), ownerID, nil)
				store.On("GetPersonByID", mock.Anything, personID).Return(person, nil)
				store.On("GetConfirmedAssignmentForFace", mock.Anything, faceID).Return(nil, nil)
				store.On("ConfirmAssignment", mock.Anything, ownerID, faceID, photoID, personID).Return(nil)
				pub.On("PublishReindex", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "reconfirming the same person is idempotent",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(&personID), ownerID, nil)
				store.On("GetPersonByID", mock.Anything, personID).Return(person, nil)
				store.On("GetConfirmedAssignmentForFace", mock.Anything, faceID).
					Return(&models.Assignment{PhotoID: photoID, PersonID: personID, Confirmed: true}, nil)
				store.On("ConfirmAssignment", mock.Anything, ownerID, faceID, photoID, personID).Return(nil)
				pub.On("PublishReindex", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "face confirmed for another person",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(&otherPersonID), ownerID, nil)
				store.On("GetPersonByID", mock.Anything, personID).Return(person, nil)
				store.On("GetConfirmedAssignmentForFace", mock.Anything, faceID).
					Return(&models.Assignment{PhotoID: photoID, PersonID: otherPersonID, Confirmed: true}, nil)
			},
			wantErr: models.ErrConflict,
		},
		{
			name: "unknown face",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(nil, uuid.Nil, nil)
			},
			wantErr: models.ErrFaceNotFound,
		},
		{
			name: "face belongs to another owner",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(nil), uuid.New(), nil)
			},
			wantErr: models.ErrFaceNotFound,
		},
		{
			name: "unknown person",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(nil), ownerID, nil)
				store.On("GetPersonByID", mock.Anything, personID).Return(nil, nil)
			},
			wantErr: models.ErrPersonNotFound,
		},
		{
			name: "person belongs to another owner",
			setup: func(store *mockStore, pub *mockPublisher) {
				store.On("GetFaceWithOwner", mock.Anything, faceID).Return(face(nil), ownerID, nil)
				store.On("GetPersonByID", mock.Anything, personID).
					Return(&models.Person{ID: personID, OwnerID: uuid.New(), Name: "Eve"}, nil)
			},
			wantErr: models.ErrCrossOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			pub := &mockPublisher{}
			tt.setup(store, pub)

			svc := NewService(store, pub, nil)
			err := svc.Assign(context.Background(), ownerID, faceID, personID)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestAssignSurvivesReindexFailure(t *testing.T) {
	ownerID := uuid.New()
	faceID := uuid.New()
	photoID := uuid.New()
	personID := uuid.New()

	store := &mockStore{}
	pub := &mockPublisher{}
	store.On("GetFaceWithOwner", mock.Anything, faceID).
		Return(&models.FaceDetection{ID: faceID, PhotoID: photoID}, ownerID, nil)
	store.On("GetPersonByID", mock.Anything, personID).
		Return(&models.Person{ID: personID, OwnerID: ownerID, Name: "Alice"}, nil)
	store.On("GetConfirmedAssignmentForFace", mock.Anything, faceID).Return(nil, nil)
	store.On("ConfirmAssignment", mock.Anything, ownerID, faceID, photoID, personID).Return(nil)
	pub.On("PublishReindex", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	svc := NewService(store, pub, nil)
	// the committed assignment wins over the dropped notification
	assert.NoError(t, svc.Assign(context.Background(), ownerID, faceID, personID))
}

func TestUnassign(t *testing.T) {
	ownerID := uuid.New()
	faceID := uuid.New()
	photoID := uuid.New()
	personID := uuid.New()

	t.Run("clears the link", func(t *testing.T) {
		store := &mockStore{}
		pub := &mockPublisher{}
		store.On("GetFaceWithOwner", mock.Anything, faceID).
			Return(&models.FaceDetection{ID: faceID, PhotoID: photoID, PersonID: &personID}, ownerID, nil)
		store.On("ClearFaceAssignment", mock.Anything, faceID).Return(nil)
		pub.On("PublishReindex", mock.Anything, models.ReindexEvent{PhotoID: photoID}).Return(nil)

		svc := NewService(store, pub, nil)
		require.NoError(t, svc.Unassign(context.Background(), ownerID, faceID))
		store.AssertExpectations(t)
	})

	t.Run("unknown face", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetFaceWithOwner", mock.Anything, faceID).Return(nil, uuid.Nil, nil)

		svc := NewService(store, &mockPublisher{}, nil)
		err := svc.Unassign(context.Background(), ownerID, faceID)
		assert.True(t, errors.Is(err, models.ErrFaceNotFound))
	})
}

func TestIgnore(t *testing.T) {
	ownerID := uuid.New()
	faceID := uuid.New()
	photoID := uuid.New()

	store := &mockStore{}
	pub := &mockPublisher{}
	store.On("GetFaceWithOwner", mock.Anything, faceID).
		Return(&models.FaceDetection{ID: faceID, PhotoID: photoID}, ownerID, nil)
	store.On("IgnoreFace", mock.Anything, ownerID, faceID).Return(nil)

	svc := NewService(store, pub, nil)
	require.NoError(t, svc.Ignore(context.Background(), ownerID, faceID))
	store.AssertExpectations(t)
	// nothing index-visible changed, so no reindex event
	pub.AssertNotCalled(t, "PublishReindex", mock.Anything, mock.Anything)
}

func TestSuggestions(t *testing.T) {
	ownerID := uuid.New()
	faceID := uuid.New()
	aliceID := uuid.New()
	bobID := uuid.New()

	assigned := []storage.AssignedFace{
		{FaceID: uuid.New(), PersonID: aliceID, Embedding: []float32{1, 0, 0}},
		{FaceID: uuid.New(), PersonID: bobID, Embedding: []float32{0, 1, 0}},
	}

	t.Run("warms the index on first call and ranks by similarity", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetFaceWithOwner", mock.Anything, faceID).
			Return(&models.FaceDetection{ID: faceID, PhotoID: uuid.New(), Embedding: []float32{0.9, 0.1, 0}}, ownerID, nil)
		store.On("ListAssignedFaces", mock.Anything, ownerID).Return(assigned, nil)
		store.On("GetPersonByID", mock.Anything, aliceID).
			Return(&models.Person{ID: aliceID, OwnerID: ownerID, Name: "Alice"}, nil)
		store.On("GetPersonByID", mock.Anything, bobID).
			Return(&models.Person{ID: bobID, OwnerID: ownerID, Name: "Bob"}, nil)

		svc := NewService(store, &mockPublisher{}, matcher.NewSuggestionIndex())
		got, err := svc.Suggestions(context.Background(), ownerID, faceID, 5)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, aliceID, got[0].PersonID)
		assert.Equal(t, "Alice", got[0].PersonName)
		store.AssertExpectations(t)
	})

	t.Run("unknown face", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetFaceWithOwner", mock.Anything, faceID).Return(nil, uuid.Nil, nil)

		svc := NewService(store, &mockPublisher{}, matcher.NewSuggestionIndex())
		_, err := svc.Suggestions(context.Background(), ownerID, faceID, 5)
		assert.True(t, errors.Is(err, models.ErrFaceNotFound))
	})
}

func TestListUnassigned(t *testing.T) {
	ownerID := uuid.New()
	want := []models.UnassignedFace{{ID: uuid.New(), PhotoID: uuid.New()}}

	store := &mockStore{}
	store.On("ListUnassignedFaces", mock.Anything, ownerID, 50, 0).Return(want, 1, nil)

	svc := NewService(store, &mockPublisher{}, nil)
	got, total, err := svc.ListUnassigned(context.Background(), ownerID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, total)
}
