package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/auth"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/storage"
	"github.com/your-org/faceid/pkg/dto"
)

type PersonHandler struct {
	db *storage.PostgresStore
}

func NewPersonHandler(db *storage.PostgresStore) *PersonHandler {
	return &PersonHandler{db: db}
}

func (h *PersonHandler) Create(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := h.db.CreatePerson(c.Request.Context(), auth.Owner(c), req.Name, req.Relationship, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(c, person))
}

func (h *PersonHandler) List(c *gin.Context) {
	persons, err := h.db.ListPersons(c.Request.Context(), auth.Owner(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.PersonResponse, 0, len(persons))
	for i := range persons {
		resp = append(resp, h.toResponse(c, &persons[i]))
	}

	c.JSON(http.StatusOK, dto.PersonListResponse{Persons: resp, Total: len(resp)})
}

func (h *PersonHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	person, err := h.db.GetPerson(c.Request.Context(), id, auth.Owner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if person == nil {
		respondError(c, models.ErrPersonNotFound)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, person))
}

func (h *PersonHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	var req dto.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := h.db.UpdatePerson(c.Request.Context(), id, auth.Owner(c), req.Name, req.Relationship, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	if person == nil {
		respondError(c, models.ErrPersonNotFound)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, person))
}

func (h *PersonHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	if err := h.db.DeletePerson(c.Request.Context(), id, auth.Owner(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *PersonHandler) toResponse(c *gin.Context, p *models.Person) dto.PersonResponse {
	photoCount, _ := h.db.CountAssignments(c.Request.Context(), p.ID)
	return dto.PersonResponse{
		ID:           p.ID,
		Name:         p.Name,
		Relationship: p.Relationship,
		Notes:        p.Notes,
		PhotoCount:   photoCount,
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}
