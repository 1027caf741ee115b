package dto

import "github.com/google/uuid"

type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type AssignFaceRequest struct {
	PersonID uuid.UUID `json:"person_id" binding:"required"`
}

type UnassignedFaceResponse struct {
	ID                  uuid.UUID   `json:"id"`
	PhotoID             uuid.UUID   `json:"photo_id"`
	BBox                BoundingBox `json:"bbox"`
	SuggestedPersonID   *uuid.UUID  `json:"suggested_person_id,omitempty"`
	SuggestedPersonName *string     `json:"suggested_person_name,omitempty"`
	CreatedAt           string      `json:"created_at"`
}

type UnassignedFaceListResponse struct {
	Faces []UnassignedFaceResponse `json:"faces"`
	Total int                      `json:"total"`
}

type FaceSuggestionResponse struct {
	PersonID   uuid.UUID `json:"person_id"`
	PersonName string    `json:"person_name,omitempty"`
	Score      float32   `json:"score"`
}

type FaceSuggestionListResponse struct {
	Suggestions []FaceSuggestionResponse `json:"suggestions"`
}

type FaceQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}
