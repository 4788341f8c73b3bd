package models

import (
	"time"
)

// User represents a registered account. Table and JSON names follow the
// original French schema.
type User struct {
	ID     uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Nom    string `json:"nom" gorm:"type:varchar(255);not null"`
	Prenom string `json:"prenom" gorm:"type:varchar(255);not null"`
	Email  string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Mdp    string `json:"-" gorm:"type:varchar(255);not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "utilisateur"
}

// Status is the read-state lookup table ("non lu" / "lu").
type Status struct {
	ID   uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Etat string `json:"etat" gorm:"type:varchar(50);not null;uniqueIndex"`
}

// TableName specifies the table name for Status
func (Status) TableName() string {
	return "status"
}

// Message is a sent message. Status is shared by all recipients.
type Message struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Objet        string    `json:"objet" gorm:"type:varchar(255)"`
	Corps        string    `json:"corps" gorm:"type:text;not null"`
	DateEnvoi    time.Time `json:"date_envoi"`
	ExpediteurID uint      `json:"expediteur_id" gorm:"not null;index"`
	StatusID     uint      `json:"status_id" gorm:"not null"`

	Expediteur  *User        `json:"expediteur,omitempty" gorm:"foreignKey:ExpediteurID"`
	Status      *Status      `json:"status,omitempty" gorm:"foreignKey:StatusID"`
	Deliveries  []Delivery   `json:"recevoir,omitempty" gorm:"foreignKey:MessageID"`
	Attachments []Attachment `json:"piecejointe,omitempty" gorm:"foreignKey:MessageID"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "message"
}

// Delivery links a message to one recipient. The composite primary key
// keeps (message, recipient) pairs unique.
type Delivery struct {
	MessageID      uint `json:"id_message" gorm:"primaryKey;autoIncrement:false"`
	DestinataireID uint `json:"id_destinataire" gorm:"primaryKey;autoIncrement:false"`

	Destinataire *User `json:"utilisateur,omitempty" gorm:"foreignKey:DestinataireID"`
}

// TableName specifies the table name for Delivery
func (Delivery) TableName() string {
	return "recevoir"
}

// Attachment holds metadata for a file stored on disk.
type Attachment struct {
	ID               uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	NomFichier       string `json:"nom_fichier" gorm:"type:varchar(255);not null"`
	Taille           int64  `json:"taille" gorm:"not null"`
	CheminDeStockage string `json:"chemin_de_stockage" gorm:"type:varchar(512);not null"`
	MessageID        uint   `json:"message_id" gorm:"not null;index"`
}

// TableName specifies the table name for Attachment
func (Attachment) TableName() string {
	return "piecejointe"
}

// SignupRequest is the body of POST /utilisateurs/signup
type SignupRequest struct {
	Nom    string `json:"nom" binding:"required"`
	Prenom string `json:"prenom" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Mdp    string `json:"mdp" binding:"required"`
}

// LoginRequest is the body of POST /utilisateurs/login
type LoginRequest struct {
	Email string `json:"email" binding:"required"`
	Mdp   string `json:"mdp" binding:"required"`
}

// SendMessageRequest is the JSON body of POST /messages. Multipart sends
// carry the same fields as form values, destinataires JSON-encoded.
type SendMessageRequest struct {
	Objet         string   `json:"objet"`
	Corps         string   `json:"corps"`
	Destinataires []string `json:"destinataires"`
}

// ReadStateRequest is the body of PUT /messages/recu/lu and /recu/non-lu
type ReadStateRequest struct {
	MessageID uint `json:"messageId" binding:"required"`
}

// StatusRequest is the body of POST /status
type StatusRequest struct {
	Etat string `json:"etat" binding:"required"`
}

// UserInfo is the public projection of a user (no password hash).
type UserInfo struct {
	ID     uint   `json:"id"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Email  string `json:"email"`
}

// RecipientInfo mirrors the original's destinataires entries.
type RecipientInfo struct {
	IDDestinataire uint   `json:"id_destinataire"`
	Nom            string `json:"nom"`
	Prenom         string `json:"prenom"`
	Email          string `json:"email"`
}

// AttachmentInfo is the attachment projection embedded in message lists.
type AttachmentInfo struct {
	ID               uint   `json:"id"`
	NomFichier       string `json:"nom_fichier"`
	Taille           int64  `json:"taille"`
	CheminDeStockage string `json:"chemin_de_stockage"`
}

// ReceivedMessageResponse is one entry of GET /messages/recu
type ReceivedMessageResponse struct {
	ID          uint             `json:"id"`
	Objet       string           `json:"objet"`
	Corps       string           `json:"corps"`
	DateEnvoi   time.Time        `json:"date_envoi"`
	Statut      string           `json:"statut"`
	Expediteur  UserInfo         `json:"expediteur"`
	PieceJointe []AttachmentInfo `json:"piecejointe"`
}

// SentMessageResponse is one entry of GET /messages/envoyes
type SentMessageResponse struct {
	ID            uint             `json:"id"`
	Objet         string           `json:"objet"`
	Corps         string           `json:"corps"`
	DateEnvoi     time.Time        `json:"date_envoi"`
	Destinataires []RecipientInfo  `json:"destinataires"`
	PieceJointe   []AttachmentInfo `json:"piecejointe"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Storage   string    `json:"storage"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error            string   `json:"error"`
	Message          string   `json:"message"`
	Code             int      `json:"code"`
	EmailsNonTrouves []string `json:"emailsNonTrouves,omitempty"`
}
