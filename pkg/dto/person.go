package dto

import "github.com/google/uuid"

type CreatePersonRequest struct {
	Name         string  `json:"name" binding:"required"`
	Relationship *string `json:"relationship,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type UpdatePersonRequest struct {
	Name         *string `json:"name,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type PersonResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Relationship *string   `json:"relationship,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	PhotoCount   int       `json:"photo_count"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

type PersonListResponse struct {
	Persons []PersonResponse `json:"persons"`
	Total   int              `json:"total"`
}
