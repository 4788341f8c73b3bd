package messaging

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xLucasGitHubx/messagerie-api/internal/models"
	"github.com/xLucasGitHubx/messagerie-api/internal/status"
	"github.com/xLucasGitHubx/messagerie-api/internal/storage"
)

var (
	// ErrEmptyBody is returned when the message body is empty or whitespace
	ErrEmptyBody = errors.New("le champ 'corps' est requis et ne peut pas être vide")
	// ErrNoRecipients is returned when the recipient list is empty
	ErrNoRecipients = errors.New("le champ 'destinataires' doit être un tableau non vide")
	// ErrNotFound hides whether a message is missing or simply not addressed
	// to the caller
	ErrNotFound = errors.New("message non trouvé ou accès non autorisé")
)

// UnresolvedRecipientsError reports every recipient email with no matching
// user, not just the first.
type UnresolvedRecipientsError struct {
	Emails []string
}

func (e *UnresolvedRecipientsError) Error() string {
	return fmt.Sprintf("certains emails n'existent pas dans le système: %s", strings.Join(e.Emails, ", "))
}

// SendInput carries everything needed to send a message.
type SendInput struct {
	ExpediteurID  uint
	Objet         string
	Corps         string
	Destinataires []string
	Fichiers      []storage.SavedFile
}

// Service orchestrates the message workflow: transactional send, listing,
// and read-state transitions.
type Service struct {
	db      *gorm.DB
	catalog *status.Catalog
}

// NewService creates the message workflow service
func NewService(db *gorm.DB, catalog *status.Catalog) *Service {
	return &Service{db: db, catalog: catalog}
}

// ResolveRecipients maps recipient emails to users in one batched query.
// Every unresolved email is reported through UnresolvedRecipientsError.
func (s *Service) ResolveRecipients(emails []string) ([]models.User, error) {
	var users []models.User
	if err := s.db.Where("email IN ?", emails).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}

	found := make(map[string]bool, len(users))
	for _, u := range users {
		found[u.Email] = true
	}
	var missing []string
	for _, email := range emails {
		if !found[email] {
			missing = append(missing, email)
		}
	}
	if len(missing) > 0 {
		return nil, &UnresolvedRecipientsError{Emails: missing}
	}
	return users, nil
}

// Send validates the input, resolves recipients, then inserts the message,
// its deliveries and its attachments in a single transaction. Either all
// rows persist or none do.
func (s *Service) Send(in SendInput) (*models.Message, error) {
	if strings.TrimSpace(in.Corps) == "" {
		return nil, ErrEmptyBody
	}
	if len(in.Destinataires) == 0 {
		return nil, ErrNoRecipients
	}

	recipients, err := s.ResolveRecipients(in.Destinataires)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.EnsureSeeded(); err != nil {
		return nil, err
	}
	unreadID, err := s.catalog.Lookup(status.Unread)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		Objet:        in.Objet,
		Corps:        in.Corps,
		DateEnvoi:    time.Now(),
		ExpediteurID: in.ExpediteurID,
		StatusID:     unreadID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		deliveries := make([]models.Delivery, 0, len(recipients))
		for _, r := range recipients {
			deliveries = append(deliveries, models.Delivery{
				MessageID:      msg.ID,
				DestinataireID: r.ID,
			})
		}
		if err := tx.Create(&deliveries).Error; err != nil {
			return fmt.Errorf("failed to create deliveries: %w", err)
		}

		if len(in.Fichiers) > 0 {
			attachments := make([]models.Attachment, 0, len(in.Fichiers))
			for _, f := range in.Fichiers {
				attachments = append(attachments, models.Attachment{
					NomFichier:       f.NomFichier,
					Taille:           f.Taille,
					CheminDeStockage: f.Chemin,
					MessageID:        msg.ID,
				})
			}
			if err := tx.Create(&attachments).Error; err != nil {
				return fmt.Errorf("failed to create attachments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var created models.Message
	if err := s.db.
		Preload("Deliveries.Destinataire").
		Preload("Attachments").
		First(&created, msg.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created message: %w", err)
	}
	return &created, nil
}

// ListReceived returns every message delivered to the user, newest first,
// with sender, status label and attachments embedded.
func (s *Service) ListReceived(userID uint) ([]models.ReceivedMessageResponse, error) {
	var msgs []models.Message
	if err := s.db.
		Joins("JOIN recevoir ON recevoir.message_id = message.id").
		Where("recevoir.destinataire_id = ?", userID).
		Preload("Expediteur").
		Preload("Status").
		Preload("Attachments").
		Order("date_envoi DESC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list received messages: %w", err)
	}

	out := make([]models.ReceivedMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp := models.ReceivedMessageResponse{
			ID:          m.ID,
			Objet:       m.Objet,
			Corps:       m.Corps,
			DateEnvoi:   m.DateEnvoi,
			PieceJointe: attachmentInfos(m.Attachments),
		}
		if m.Status != nil {
			resp.Statut = m.Status.Etat
		}
		if m.Expediteur != nil {
			resp.Expediteur = models.UserInfo{
				ID:     m.Expediteur.ID,
				Nom:    m.Expediteur.Nom,
				Prenom: m.Expediteur.Prenom,
				Email:  m.Expediteur.Email,
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

// ListSent returns every message the user sent, newest first, with the
// resolved recipient list and attachments embedded.
func (s *Service) ListSent(userID uint) ([]models.SentMessageResponse, error) {
	var msgs []models.Message
	if err := s.db.
		Where("expediteur_id = ?", userID).
		Preload("Deliveries.Destinataire").
		Preload("Attachments").
		Order("date_envoi DESC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sent messages: %w", err)
	}

	out := make([]models.SentMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		recipients := make([]models.RecipientInfo, 0, len(m.Deliveries))
		for _, d := range m.Deliveries {
			if d.Destinataire == nil {
				continue
			}
			recipients = append(recipients, models.RecipientInfo{
				IDDestinataire: d.Destinataire.ID,
				Nom:            d.Destinataire.Nom,
				Prenom:         d.Destinataire.Prenom,
				Email:          d.Destinataire.Email,
			})
		}
		out = append(out, models.SentMessageResponse{
			ID:            m.ID,
			Objet:         m.Objet,
			Corps:         m.Corps,
			DateEnvoi:     m.DateEnvoi,
			Destinataires: recipients,
			PieceJointe:   attachmentInfos(m.Attachments),
		})
	}
	return out, nil
}

// SetReadState updates the message status after verifying the caller is a
// recipient. Absence of a delivery row yields ErrNotFound regardless of
// whether the message exists.
//
// The status field lives on the message, not the delivery: one recipient's
// toggle is visible to all recipients.
func (s *Service) SetReadState(userID, messageID uint, etat string) error {
	var d models.Delivery
	err := s.db.
		Where("message_id = ? AND destinataire_id = ?", messageID, userID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check delivery: %w", err)
	}

	if err := s.catalog.EnsureSeeded(); err != nil {
		return err
	}
	statusID, err := s.catalog.Lookup(etat)
	if err != nil {
		return err
	}

	if err := s.db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("status_id", statusID).Error; err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	return nil
}

// AddAttachment records attachment metadata against an existing message
func (s *Service) AddAttachment(messageID uint, f storage.SavedFile) (*models.Attachment, error) {
	var msg models.Message
	if err := s.db.First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up message: %w", err)
	}

	attachment := models.Attachment{
		NomFichier:       f.NomFichier,
		Taille:           f.Taille,
		CheminDeStockage: f.Chemin,
		MessageID:        messageID,
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	return &attachment, nil
}

// GetAttachment looks up attachment metadata by id
func (s *Service) GetAttachment(id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := s.db.First(&attachment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up attachment: %w", err)
	}
	return &attachment, nil
}

func attachmentInfos(attachments []models.Attachment) []models.AttachmentInfo {
	out := make([]models.AttachmentInfo, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, models.AttachmentInfo{
			ID:               a.ID,
			NomFichier:       a.NomFichier,
			Taille:           a.Taille,
			CheminDeStockage: a.CheminDeStockage,
		})
	}
	return out
}
