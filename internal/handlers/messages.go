package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xLucasGitHubx/messagerie-api/internal/auth"
	"github.com/xLucasGitHubx/messagerie-api/internal/messaging"
	"github.com/xLucasGitHubx/messagerie-api/internal/models"
	"github.com/xLucasGitHubx/messagerie-api/internal/status"
	"github.com/xLucasGitHubx/messagerie-api/internal/storage"
)

// SendMessage handles POST /messages. The body is either JSON or
// multipart/form-data; multipart requests carry 'destinataires' as a
// JSON-encoded array field and files under 'files' (or 'file').
func (h *Handlers) SendMessage(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthenticated",
			Message: "Token manquant",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	var (
		req   models.SendMessageRequest
		files []storage.SavedFile
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req.Objet = c.PostForm("objet")
		req.Corps = c.PostForm("corps")

		raw := c.PostForm("destinataires")
		if strings.TrimSpace(raw) == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Le champ 'destinataires' est requis (sous forme de chaîne JSON).",
				Code:    http.StatusBadRequest,
			})
			return
		}
		if err := json.Unmarshal([]byte(raw), &req.Destinataires); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Le champ 'destinataires' doit être un tableau JSON valide.",
				Code:    http.StatusBadRequest,
			})
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Requête multipart invalide",
				Code:    http.StatusBadRequest,
			})
			return
		}
		uploads := append(form.File["files"], form.File["file"]...)
		files, err = h.saveUploads(uploads)
		if err != nil {
			h.metrics.SendFailures.Inc()
			h.respondStorageError(c, err)
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Requête invalide",
				Code:    http.StatusBadRequest,
			})
			return
		}
	}

	msg, err := h.svc.Send(messaging.SendInput{
		ExpediteurID:  userID,
		Objet:         req.Objet,
		Corps:         req.Corps,
		Destinataires: req.Destinataires,
		Fichiers:      files,
	})
	if err != nil {
		h.metrics.SendFailures.Inc()
		h.respondSendError(c, err)
		return
	}

	h.metrics.MessagesSent.Inc()
	logrus.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"sender_id":  userID,
		"recipients": len(msg.Deliveries),
	}).Info("Message sent")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message envoyé avec succès",
		"data":    msg,
	})
}

// ListReceived handles GET /messages/recu
func (h *Handlers) ListReceived(c *gin.Context) {
	userID, _ := auth.CurrentUserID(c)
	messages, err := h.svc.ListReceived(userID)
	if err != nil {
		logrus.Errorf("Failed to list received messages: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Erreur lors de la récupération des messages reçus",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// ListSent handles GET /messages/envoyes
func (h *Handlers) ListSent(c *gin.Context) {
	userID, _ := auth.CurrentUserID(c)
	messages, err := h.svc.ListSent(userID)
	if err != nil {
		logrus.Errorf("Failed to list sent messages: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Erreur lors de la récupération des messages envoyés",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MarkRead handles PUT /messages/recu/lu
func (h *Handlers) MarkRead(c *gin.Context) {
	h.setReadState(c, status.Read, "Message marqué comme lu avec succès")
}

// MarkUnread handles PUT /messages/recu/non-lu
func (h *Handlers) MarkUnread(c *gin.Context) {
	h.setReadState(c, status.Unread, "Message marqué comme non lu avec succès")
}

func (h *Handlers) setReadState(c *gin.Context, etat, successMessage string) {
	userID, _ := auth.CurrentUserID(c)

	var req models.ReadStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Requête invalide",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.svc.SetReadState(userID, req.MessageID, etat); err != nil {
		if errors.Is(err, messaging.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "Message non trouvé ou accès non autorisé",
				Code:    http.StatusNotFound,
			})
			return
		}
		logrus.Errorf("Failed to update read state: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Erreur interne",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": successMessage})
}

// saveUploads writes every uploaded file to the store, recording metrics
func (h *Handlers) saveUploads(uploads []*multipart.FileHeader) ([]storage.SavedFile, error) {
	var saved []storage.SavedFile
	for _, fh := range uploads {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		sf, err := h.store.Save(f, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
		f.Close()
		if err != nil {
			return nil, err
		}
		h.metrics.AttachmentsStored.Inc()
		h.metrics.AttachmentBytes.Observe(float64(sf.Taille))
		saved = append(saved, *sf)
	}
	return saved, nil
}

func (h *Handlers) respondSendError(c *gin.Context, err error) {
	var unresolved *messaging.UnresolvedRecipientsError
	switch {
	case errors.Is(err, messaging.ErrEmptyBody):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Le champ 'corps' est requis et ne peut pas être vide.",
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, messaging.ErrNoRecipients):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Le champ 'destinataires' doit être un tableau non vide.",
			Code:    http.StatusBadRequest,
		})
	case errors.As(err, &unresolved):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:            "validation_error",
			Message:          "Certains emails n'existent pas dans le système",
			Code:             http.StatusBadRequest,
			EmailsNonTrouves: unresolved.Emails,
		})
	default:
		logrus.Errorf("Failed to send message: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
	}
}

func (h *Handlers) respondStorageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unsupported_media_type",
			Message: "Type de fichier non autorisé",
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "file_too_large",
			Message: "Fichier trop volumineux",
			Code:    http.StatusRequestEntityTooLarge,
		})
	default:
		logrus.Errorf("Failed to store upload: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
	}
}
