package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/assignment"
	"github.com/your-org/faceid/internal/auth"
	"github.com/your-org/faceid/pkg/dto"
)

type FaceHandler struct {
	svc *assignment.Service
}

func NewFaceHandler(svc *assignment.Service) *FaceHandler {
	return &FaceHandler{svc: svc}
}

// ListUnassigned returns faces still waiting for a human decision, newest
// first.
func (h *FaceHandler) ListUnassigned(c *gin.Context) {
	var q dto.FaceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	faces, total, err := h.svc.ListUnassigned(c.Request.Context(), auth.Owner(c), q.Limit, q.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.UnassignedFaceResponse, 0, len(faces))
	for _, f := range faces {
		resp = append(resp, dto.UnassignedFaceResponse{
			ID:      f.ID,
			PhotoID: f.PhotoID,
			BBox: dto.BoundingBox{
				X:      f.BBox.X,
				Y:      f.BBox.Y,
				Width:  f.BBox.Width,
				Height: f.BBox.Height,
			},
			SuggestedPersonID:   f.SuggestedPersonID,
			SuggestedPersonName: f.SuggestedPersonName,
			CreatedAt:           formatTime(f.CreatedAt),
		})
	}

	c.JSON(http.StatusOK, dto.UnassignedFaceListResponse{Faces: resp, Total: total})
}

// Suggestions ranks the owner's persons by similarity to the face.
func (h *FaceHandler) Suggestions(c *gin.Context) {
	faceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return
	}

	suggestions, err := h.svc.Suggestions(c.Request.Context(), auth.Owner(c), faceID, 5)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.FaceSuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		resp = append(resp, dto.FaceSuggestionResponse{
			PersonID:   s.PersonID,
			PersonName: s.PersonName,
			Score:      s.Score,
		})
	}

	c.JSON(http.StatusOK, dto.FaceSuggestionListResponse{Suggestions: resp})
}

func (h *FaceHandler) Assign(c *gin.Context) {
	faceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return
	}

	var req dto.AssignFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.Assign(c.Request.Context(), auth.Owner(c), faceID, req.PersonID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

func (h *FaceHandler) Unassign(c *gin.Context) {
	faceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return
	}

	if err := h.svc.Unassign(c.Request.Context(), auth.Owner(c), faceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unassigned"})
}

func (h *FaceHandler) Ignore(c *gin.Context) {
	faceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid face id"})
		return
	}

	if err := h.svc.Ignore(c.Request.Context(), auth.Owner(c), faceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ignored"})
}
