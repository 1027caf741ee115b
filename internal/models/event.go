package models

import "github.com/google/uuid"

// UploadedEvent is the inbound photo:uploaded payload. Delivery is
// at-least-once; the pipeline's claim step makes redelivery harmless.
type UploadedEvent struct {
	PhotoID    uuid.UUID `json:"photoId"`
	OwnerID    uuid.UUID `json:"ownerId"`
	StorageKey string    `json:"storageKey"`
}

// DeletedEvent is the inbound photo:deleted payload.
type DeletedEvent struct {
	PhotoID uuid.UUID `json:"photoId"`
}

// AnalyzedEvent is the outbound photo:analyzed payload, emitted once per
// terminal transition (COMPLETE or FAILED).
type AnalyzedEvent struct {
	PhotoID   uuid.UUID      `json:"photoId"`
	FaceCount int            `json:"faceCount"`
	Status    AnalysisStatus `json:"status"`
}

// ReindexEvent is the outbound photo:reindex payload, telling the search
// index a photo's derived data changed.
type ReindexEvent struct {
	PhotoID uuid.UUID `json:"photoId"`
}
