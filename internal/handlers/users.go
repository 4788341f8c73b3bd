package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/xLucasGitHubx/messagerie-api/internal/models"
)

// Signup creates a new user account
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Requête invalide",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var existing models.User
	err := h.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Email déjà utilisé",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.Errorf("Failed to check existing user: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Mdp), bcrypt.DefaultCost)
	if err != nil {
		logrus.Errorf("Failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	user := models.User{
		Nom:    req.Nom,
		Prenom: req.Prenom,
		Email:  req.Email,
		Mdp:    string(hashed),
	}
	if err := h.db.Create(&user).Error; err != nil {
		// A concurrent signup can slip past the existence check; the unique
		// index on email catches it here.
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Email déjà utilisé",
			Code:    http.StatusBadRequest,
		})
		return
	}

	h.metrics.Signups.Inc()
	logrus.WithField("user_id", user.ID).Info("User created")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Utilisateur créé avec succès",
		"utilisateur": models.UserInfo{
			ID:     user.ID,
			Nom:    user.Nom,
			Prenom: user.Prenom,
			Email:  user.Email,
		},
	})
}

// Login verifies credentials and issues a bearer token
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Requête invalide",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Utilisateur non trouvé",
				Code:    http.StatusBadRequest,
			})
			return
		}
		logrus.Errorf("Failed to look up user: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Mdp), []byte(req.Mdp)); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Mot de passe incorrect",
			Code:    http.StatusBadRequest,
		})
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		logrus.Errorf("Failed to sign token: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Une erreur interne s'est produite.",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.metrics.Logins.Inc()
	c.JSON(http.StatusOK, gin.H{"token": token})
}
