package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xLucasGitHubx/messagerie-api/internal/messaging"
	"github.com/xLucasGitHubx/messagerie-api/internal/models"
)

// UploadAttachment handles POST /pieces-jointes/:messageId, attaching a
// single multipart file to an existing message.
func (h *Handlers) UploadAttachment(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("messageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Identifiant de message invalide",
			Code:    http.StatusBadRequest,
		})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Aucun fichier n'a été uploadé.",
			Code:    http.StatusBadRequest,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		logrus.Errorf("Failed to open upload: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	defer f.Close()

	saved, err := h.store.Save(f, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
	if err != nil {
		h.respondStorageError(c, err)
		return
	}

	attachment, err := h.svc.AddAttachment(uint(messageID), *saved)
	if err != nil {
		// The file is already on disk; drop it so a failed insert leaves no
		// orphan bytes behind.
		os.Remove(saved.Chemin)
		if errors.Is(err, messaging.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Message non trouvé ou accès non autorisé",
				Code:    http.StatusNotFound,
			})
			return
		}
		logrus.Errorf("Failed to record attachment: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.metrics.AttachmentsStored.Inc()
	h.metrics.AttachmentBytes.Observe(float64(saved.Taille))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Pièce jointe ajoutée avec succès",
		"data":    attachment,
	})
}

// DownloadAttachment handles GET /pieces-jointes/:id, streaming the stored
// bytes back under the original filename.
func (h *Handlers) DownloadAttachment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_id",
			Message: "Identifiant de pièce jointe invalide",
			Code:    http.StatusBadRequest,
		})
		return
	}

	attachment, err := h.svc.GetAttachment(uint(id))
	if err != nil {
		if errors.Is(err, messaging.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Pièce jointe non trouvée",
				Code:    http.StatusNotFound,
			})
			return
		}
		logrus.Errorf("Failed to look up attachment: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if _, err := os.Stat(attachment.CheminDeStockage); err != nil {
		logrus.Errorf("Stored file missing for attachment %d: %v", attachment.ID, err)
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Pièce jointe non trouvée",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.FileAttachment(attachment.CheminDeStockage, attachment.NomFichier)
}
