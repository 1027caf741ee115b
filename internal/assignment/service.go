// Package assignment implements the human side of face resolution:
// confirming, removing and suppressing face-to-person links.
package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/matcher"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/storage"
)

// Store is the persistence surface the service needs.
type Store interface {
	GetFaceWithOwner(ctx context.Context, faceID uuid.UUID) (*models.FaceDetection, uuid.UUID, error)
	GetPersonByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	GetConfirmedAssignmentForFace(ctx context.Context, faceID uuid.UUID) (*models.Assignment, error)
	ConfirmAssignment(ctx context.Context, ownerID, faceID, photoID, personID uuid.UUID) error
	ClearFaceAssignment(ctx context.Context, faceID uuid.UUID) error
	IgnoreFace(ctx context.Context, ownerID, faceID uuid.UUID) error
	ListUnassignedFaces(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.UnassignedFace, int, error)
	ListAssignedFaces(ctx context.Context, ownerID uuid.UUID) ([]storage.AssignedFace, error)
}

// Publisher emits reindex notifications after mutations.
type Publisher interface {
	PublishReindex(ctx context.Context, ev models.ReindexEvent) error
}

type Service struct {
	store     Store
	publisher Publisher
	index     *matcher.SuggestionIndex // optional
}

func NewService(store Store, publisher Publisher, index *matcher.SuggestionIndex) *Service {
	return &Service{store: store, publisher: publisher, index: index}
}

// Assign confirms that a face belongs to a person. An unconfirmed automatic
// match is simply overwritten; only a face already confirmed for a different
// person must be unassigned first.
func (s *Service) Assign(ctx context.Context, ownerID, faceID, personID uuid.UUID) error {
	face, faceOwner, err := s.store.GetFaceWithOwner(ctx, faceID)
	if err != nil {
		return err
	}
	if face == nil || faceOwner != ownerID {
		return models.ErrFaceNotFound
	}

	person, err := s.store.GetPersonByID(ctx, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return models.ErrPersonNotFound
	}
	if person.OwnerID != ownerID {
		return models.ErrCrossOwner
	}

	confirmed, err := s.store.GetConfirmedAssignmentForFace(ctx, faceID)
	if err != nil {
		return err
	}
	if confirmed != nil && confirmed.PersonID != personID {
		return models.ErrConflict.WithError(
			fmt.Errorf("face %s is confirmed for person %s", faceID, confirmed.PersonID))
	}

	if err := s.store.ConfirmAssignment(ctx, ownerID, faceID, face.PhotoID, personID); err != nil {
		return err
	}

	if s.index != nil {
		s.index.Add(ownerID, storage.AssignedFace{
			FaceID:    faceID,
			PersonID:  personID,
			Embedding: face.Embedding,
		})
	}

	s.reindex(ctx, face.PhotoID)
	return nil
}

// Unassign removes a face's person link.
func (s *Service) Unassign(ctx context.Context, ownerID, faceID uuid.UUID) error {
	face, faceOwner, err := s.store.GetFaceWithOwner(ctx, faceID)
	if err != nil {
		return err
	}
	if face == nil || faceOwner != ownerID {
		return models.ErrFaceNotFound
	}

	if err := s.store.ClearFaceAssignment(ctx, faceID); err != nil {
		return err
	}

	if s.index != nil {
		s.index.Remove(ownerID, faceID)
	}

	s.reindex(ctx, face.PhotoID)
	return nil
}

// Ignore hides a face from the unassigned listing without binding it to
// anyone.
func (s *Service) Ignore(ctx context.Context, ownerID, faceID uuid.UUID) error {
	face, faceOwner, err := s.store.GetFaceWithOwner(ctx, faceID)
	if err != nil {
		return err
	}
	if face == nil || faceOwner != ownerID {
		return models.ErrFaceNotFound
	}

	// No reindex: ignoring changes nothing a search index can see.
	return s.store.IgnoreFace(ctx, ownerID, faceID)
}

// Suggestion is a candidate person for a face, best first.
type Suggestion struct {
	PersonID   uuid.UUID
	PersonName string
	Score      float32
}

// Suggestions returns up to k candidate persons for an unresolved face,
// ranked by embedding similarity against the owner's assigned faces. The
// first call for an owner warms their in-memory graph from the database.
func (s *Service) Suggestions(ctx context.Context, ownerID, faceID uuid.UUID, k int) ([]Suggestion, error) {
	face, faceOwner, err := s.store.GetFaceWithOwner(ctx, faceID)
	if err != nil {
		return nil, err
	}
	if face == nil || faceOwner != ownerID {
		return nil, models.ErrFaceNotFound
	}
	if s.index == nil {
		return nil, nil
	}

	if s.index.Count(ownerID) == 0 {
		assigned, err := s.store.ListAssignedFaces(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		s.index.Rebuild(ownerID, assigned)
	}

	var out []Suggestion
	for _, hit := range s.index.Suggest(ownerID, face.Embedding, k) {
		sg := Suggestion{PersonID: hit.PersonID, Score: hit.Score}
		if person, err := s.store.GetPersonByID(ctx, hit.PersonID); err == nil && person != nil {
			sg.PersonName = person.Name
		}
		out = append(out, sg)
	}
	return out, nil
}

// ListUnassigned returns the owner's faces that still need a human decision.
func (s *Service) ListUnassigned(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.UnassignedFace, int, error) {
	return s.store.ListUnassignedFaces(ctx, ownerID, limit, offset)
}

// reindex is best effort: the mutation is committed, downstream indexers
// catch up through the periodic sweep if the publish drops.
func (s *Service) reindex(ctx context.Context, photoID uuid.UUID) {
	if err := s.publisher.PublishReindex(ctx, models.ReindexEvent{PhotoID: photoID}); err != nil {
		slog.Warn("publish reindex event", "photo", photoID, "error", err)
	}
}
