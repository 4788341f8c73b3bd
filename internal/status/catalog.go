package status

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xLucasGitHubx/messagerie-api/internal/models"
)

// Canonical read-state labels, shared with the original schema.
const (
	Unread = "non lu"
	Read   = "lu"
)

// Catalog resolves read-state labels to status rows, seeding the two
// canonical labels on demand.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a catalog over the given database handle
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// EnsureSeeded inserts the canonical labels that are missing. Safe to call
// from concurrent requests: inserts are a no-op when the unique index on
// the label already holds the row.
func (c *Catalog) EnsureSeeded() error {
	var existing []models.Status
	if err := c.db.Where("etat IN ?", []string{Unread, Read}).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to query statuses: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, s := range existing {
		present[s.Etat] = true
	}

	var missing []models.Status
	for _, etat := range []string{Unread, Read} {
		if !present[etat] {
			missing = append(missing, models.Status{Etat: etat})
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&missing).Error; err != nil {
		return fmt.Errorf("failed to seed statuses: %w", err)
	}
	return nil
}

// Lookup resolves a label to its status id
func (c *Catalog) Lookup(etat string) (uint, error) {
	var s models.Status
	if err := c.db.Where("etat = ?", etat).First(&s).Error; err != nil {
		return 0, fmt.Errorf("failed to look up status %q: %w", etat, err)
	}
	return s.ID, nil
}

// List returns all status rows
func (c *Catalog) List() ([]models.Status, error) {
	var statuses []models.Status
	if err := c.db.Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

// Create inserts a new label. Duplicates are rejected by the unique index.
func (c *Catalog) Create(etat string) (*models.Status, error) {
	s := models.Status{Etat: etat}
	if err := c.db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}
	return &s, nil
}
