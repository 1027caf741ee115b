package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus is the processing state of a photo. The set is closed;
// validity of transitions is enforced by CanTransition, nowhere else.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "PENDING"
	StatusProcessing AnalysisStatus = "PROCESSING"
	StatusComplete   AnalysisStatus = "COMPLETE"
	StatusFailed     AnalysisStatus = "FAILED"
)

var validTransitions = map[AnalysisStatus][]AnalysisStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusComplete, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

// CanTransition reports whether moving from one status to another is legal.
// Stale-claim recovery (PROCESSING held past the claim threshold) is handled
// by the claim predicate in storage, not by an extra edge here.
func CanTransition(from, to AnalysisStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status needs no further processing. FAILED is
// terminal for the pipeline but remains eligible for re-claim on retry.
func (s AnalysisStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// PhotoMetadata carries the EXIF fields extracted alongside face analysis.
type PhotoMetadata struct {
	TakenAt     *time.Time `json:"taken_at,omitempty" db:"taken_at"`
	Latitude    *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64   `json:"longitude,omitempty" db:"longitude"`
	CameraMake  *string    `json:"camera_make,omitempty" db:"camera_make"`
	CameraModel *string    `json:"camera_model,omitempty" db:"camera_model"`
}

// AnalysisResult is the authoritative per-photo processing record. Exactly
// one row exists per photo id.
type AnalysisResult struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	PhotoID      uuid.UUID      `json:"photo_id" db:"photo_id"`
	OwnerID      uuid.UUID      `json:"owner_id" db:"owner_id"`
	Status       AnalysisStatus `json:"status" db:"status"`
	FaceCount    int            `json:"face_count" db:"face_count"`
	Metadata     PhotoMetadata  `json:"metadata"`
	ErrorMessage *string        `json:"error_message,omitempty" db:"error_message"`
	AnalyzedAt   *time.Time     `json:"analyzed_at,omitempty" db:"analyzed_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
