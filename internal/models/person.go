package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is an identity the operator recognizes. Persons are owned: all
// matching and assignment is scoped to OwnerID.
type Person struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OwnerID      uuid.UUID `json:"owner_id" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	Relationship *string   `json:"relationship,omitempty" db:"relationship"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// BoundingBox locates a face within its photo, in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x" db:"bbox_x"`
	Y      int `json:"y" db:"bbox_y"`
	Width  int `json:"width" db:"bbox_width"`
	Height int `json:"height" db:"bbox_height"`
}

// FaceDetection is one detected face within one photo. PersonID is nil until
// the face is resolved; a value set by automatic matching stays advisory
// until a confirmed Assignment exists.
type FaceDetection struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	PersonID   *uuid.UUID  `json:"person_id,omitempty" db:"person_id"`
	PhotoID    uuid.UUID   `json:"photo_id" db:"photo_id"`
	Embedding  []float32   `json:"-" db:"embedding"`
	BBox       BoundingBox `json:"bbox"`
	Confidence float32     `json:"confidence" db:"confidence"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// Assignment is a photo-to-person binding. At most one row exists per
// (photo, person); the backing face reference is weak and survives face
// deletion. Confirmed marks a human decision as opposed to an automatic
// suggestion.
type Assignment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	PhotoID         uuid.UUID  `json:"photo_id" db:"photo_id"`
	PersonID        uuid.UUID  `json:"person_id" db:"person_id"`
	FaceDetectionID *uuid.UUID `json:"face_detection_id,omitempty" db:"face_detection_id"`
	Confirmed       bool       `json:"confirmed" db:"confirmed"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// UnassignedFace is a FaceDetection without a confirmed assignment, together
// with the most recent automatic suggestion if one exists.
type UnassignedFace struct {
	ID                  uuid.UUID   `json:"id"`
	PhotoID             uuid.UUID   `json:"photo_id"`
	BBox                BoundingBox `json:"bbox"`
	CreatedAt           time.Time   `json:"created_at"`
	SuggestedPersonID   *uuid.UUID  `json:"suggested_person_id,omitempty"`
	SuggestedPersonName *string     `json:"suggested_person_name,omitempty"`
}
