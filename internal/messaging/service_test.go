package messaging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "github.com/xLucasGitHubx/messagerie-api/internal/db"
	"github.com/xLucasGitHubx/messagerie-api/internal/models"
	"github.com/xLucasGitHubx/messagerie-api/internal/status"
	"github.com/xLucasGitHubx/messagerie-api/internal/storage"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))
	return NewService(db, status.NewCatalog(db)), db
}

func createUser(t *testing.T, db *gorm.DB, nom, email string) models.User {
	t.Helper()
	user := models.User{Nom: nom, Prenom: nom, Email: email, Mdp: "hash"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestSendCreatesMessageDeliveriesAndAttachments(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")
	bob := createUser(t, db, "Bob", "bob@x.com")
	carol := createUser(t, db, "Carol", "carol@x.com")

	msg, err := svc.Send(SendInput{
		ExpediteurID:  alice.ID,
		Objet:         "Réunion",
		Corps:         "Demain 10h",
		Destinataires: []string{"bob@x.com", "carol@x.com"},
		Fichiers: []storage.SavedFile{
			{NomFichier: "ordre-du-jour.pdf", Taille: 42, Chemin: "uploads/1-ordre-du-jour.pdf"},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, msg.ID)

	// Returned recipient set equals the resolved users.
	got := make(map[uint]bool)
	for _, d := range msg.Deliveries {
		got[d.DestinataireID] = true
	}
	assert.Equal(t, map[uint]bool{bob.ID: true, carol.ID: true}, got)

	// One delivery row per recipient.
	var deliveries int64
	require.NoError(t, db.Model(&models.Delivery{}).Where("message_id = ?", msg.ID).Count(&deliveries).Error)
	assert.Equal(t, int64(2), deliveries)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "ordre-du-jour.pdf", msg.Attachments[0].NomFichier)

	// Status defaults to "non lu".
	unreadID, err := status.NewCatalog(db).Lookup(status.Unread)
	require.NoError(t, err)
	assert.Equal(t, unreadID, msg.StatusID)
}

func TestSendUnresolvedRecipientLeavesNoRows(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")
	createUser(t, db, "Bob", "bob@x.com")

	_, err := svc.Send(SendInput{
		ExpediteurID:  alice.ID,
		Corps:         "Bonjour",
		Destinataires: []string{"bob@x.com", "nouser@x.com", "autre@x.com"},
	})
	require.Error(t, err)

	var unresolved *UnresolvedRecipientsError
	require.ErrorAs(t, err, &unresolved)
	assert.ElementsMatch(t, []string{"nouser@x.com", "autre@x.com"}, unresolved.Emails)

	var messages, deliveries int64
	require.NoError(t, db.Model(&models.Message{}).Count(&messages).Error)
	require.NoError(t, db.Model(&models.Delivery{}).Count(&deliveries).Error)
	assert.Zero(t, messages)
	assert.Zero(t, deliveries)
}

func TestSendValidation(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")

	_, err := svc.Send(SendInput{ExpediteurID: alice.ID, Corps: "   ", Destinataires: []string{"alice@x.com"}})
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = svc.Send(SendInput{ExpediteurID: alice.ID, Corps: "Bonjour"})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestSetReadStateRequiresDelivery(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")
	createUser(t, db, "Bob", "bob@x.com")
	carol := createUser(t, db, "Carol", "carol@x.com")

	msg, err := svc.Send(SendInput{
		ExpediteurID:  alice.ID,
		Corps:         "Bonjour",
		Destinataires: []string{"bob@x.com"},
	})
	require.NoError(t, err)

	// Not a recipient: indistinguishable from a missing message.
	err = svc.SetReadState(carol.ID, msg.ID, status.Read)
	assert.ErrorIs(t, err, ErrNotFound)

	// The sender is not a recipient either.
	err = svc.SetReadState(alice.ID, msg.ID, status.Read)
	assert.ErrorIs(t, err, ErrNotFound)

	// Unknown message id.
	err = svc.SetReadState(carol.ID, msg.ID+999, status.Read)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadStatusSharedBetweenRecipients(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")
	bob := createUser(t, db, "Bob", "bob@x.com")
	carol := createUser(t, db, "Carol", "carol@x.com")

	msg, err := svc.Send(SendInput{
		ExpediteurID:  alice.ID,
		Corps:         "Bonjour",
		Destinataires: []string{"bob@x.com", "carol@x.com"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetReadState(bob.ID, msg.ID, status.Read))

	// The status lives on the message: Carol sees Bob's toggle.
	received, err := svc.ListReceived(carol.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, status.Read, received[0].Statut)

	require.NoError(t, svc.SetReadState(carol.ID, msg.ID, status.Unread))
	received, err = svc.ListReceived(bob.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, status.Unread, received[0].Statut)
}

func TestListReceivedOnlyOwnMessages(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")
	bob := createUser(t, db, "Bob", "bob@x.com")
	createUser(t, db, "Carol", "carol@x.com")

	_, err := svc.Send(SendInput{ExpediteurID: alice.ID, Corps: "pour bob", Destinataires: []string{"bob@x.com"}})
	require.NoError(t, err)
	_, err = svc.Send(SendInput{ExpediteurID: bob.ID, Corps: "pour carol", Destinataires: []string{"carol@x.com"}})
	require.NoError(t, err)

	received, err := svc.ListReceived(bob.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "pour bob", received[0].Corps)
	assert.Equal(t, alice.ID, received[0].Expediteur.ID)

	received, err = svc.ListReceived(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, received)
}

func TestListSentNewestFirstWithRecipients(t *testing.T) {
	svc, db := newTestService(t)
	alice := createUser(t, db, "Alice", "alice@x.com")
	bob := createUser(t, db, "Bob", "bob@x.com")

	first, err := svc.Send(SendInput{ExpediteurID: alice.ID, Corps: "premier", Destinataires: []string{"bob@x.com"}})
	require.NoError(t, err)
	second, err := svc.Send(SendInput{ExpediteurID: alice.ID, Corps: "second", Destinataires: []string{"bob@x.com"}})
	require.NoError(t, err)

	sent, err := svc.ListSent(alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, second.ID, sent[0].ID)
	assert.Equal(t, first.ID, sent[1].ID)

	require.Len(t, sent[0].Destinataires, 1)
	assert.Equal(t, bob.ID, sent[0].Destinataires[0].IDDestinataire)
	assert.Equal(t, "bob@x.com", sent[0].Destinataires[0].Email)

	// Bob sent nothing.
	sent, err = svc.ListSent(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestAddAttachmentToMissingMessage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddAttachment(12345, storage.SavedFile{NomFichier: "a.pdf", Taille: 1, Chemin: "uploads/a.pdf"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAttachmentUnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetAttachment(98765)
	assert.ErrorIs(t, err, ErrNotFound)
}
