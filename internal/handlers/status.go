package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xLucasGitHubx/messagerie-api/internal/models"
)

// GetStatuses returns all status rows
func (h *Handlers) GetStatuses(c *gin.Context) {
	statuses, err := h.catalog.List()
	if err != nil {
		logrus.Errorf("Failed to list statuses: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// CreateStatus inserts a new status label
func (h *Handlers) CreateStatus(c *gin.Context) {
	var req models.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Requête invalide",
			Code:    http.StatusBadRequest,
		})
		return
	}

	created, err := h.catalog.Create(req.Etat)
	if err != nil {
		// Duplicate labels hit the unique index.
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Statut invalide ou déjà existant",
			Code:    http.StatusBadRequest,
		})
		return
	}
	c.JSON(http.StatusCreated, created)
}
