package dto

import "github.com/google/uuid"

type AnalysisResponse struct {
	PhotoID      uuid.UUID `json:"photo_id"`
	Status       string    `json:"status"`
	FaceCount    int       `json:"face_count"`
	TakenAt      *string   `json:"taken_at,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CameraMake   *string   `json:"camera_make,omitempty"`
	CameraModel  *string   `json:"camera_model,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	AnalyzedAt   *string   `json:"analyzed_at,omitempty"`
	CreatedAt    string    `json:"created_at"`
}

// WSEvent is a WebSocket message announcing a finished analysis.
type WSEvent struct {
	Type      string    `json:"type"` // photo_analyzed
	PhotoID   uuid.UUID `json:"photo_id"`
	Status    string    `json:"status"`
	FaceCount int       `json:"face_count"`
}
