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

type AnalysisHandler struct {
	db *storage.PostgresStore
}

func NewAnalysisHandler(db *storage.PostgresStore) *AnalysisHandler {
	return &AnalysisHandler{db: db}
}

// GetByPhoto returns the analysis state for one photo.
func (h *AnalysisHandler) GetByPhoto(c *gin.Context) {
	photoID, err := uuid.Parse(c.Param("photoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid photo id"})
		return
	}

	ar, err := h.db.GetAnalysisByPhoto(c.Request.Context(), photoID, auth.Owner(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if ar == nil {
		respondError(c, models.ErrAnalysisNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.AnalysisResponse{
		PhotoID:      ar.PhotoID,
		Status:       string(ar.Status),
		FaceCount:    ar.FaceCount,
		TakenAt:      formatTimePtr(ar.Metadata.TakenAt),
		Latitude:     ar.Metadata.Latitude,
		Longitude:    ar.Metadata.Longitude,
		CameraMake:   ar.Metadata.CameraMake,
		CameraModel:  ar.Metadata.CameraModel,
		ErrorMessage: ar.ErrorMessage,
		AnalyzedAt:   formatTimePtr(ar.AnalyzedAt),
		CreatedAt:    formatTime(ar.CreatedAt),
	})
}
