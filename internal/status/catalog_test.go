package status

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xLucasGitHubx/messagerie-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Status{}))
	return db
}

func countStatuses(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Status{}).Count(&count).Error)
	return count
}

func TestEnsureSeededIdempotent(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)

	require.NoError(t, catalog.EnsureSeeded())
	require.NoError(t, catalog.EnsureSeeded())

	assert.Equal(t, int64(2), countStatuses(t, db))

	unread, err := catalog.Lookup(Unread)
	require.NoError(t, err)
	read, err := catalog.Lookup(Read)
	require.NoError(t, err)
	assert.NotEqual(t, unread, read)
}

func TestEnsureSeededConcurrent(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Errors from lock contention are tolerated; the invariant that
			// matters is one row per label afterwards.
			_ = catalog.EnsureSeeded()
		}()
	}
	wg.Wait()

	require.NoError(t, catalog.EnsureSeeded())
	assert.Equal(t, int64(2), countStatuses(t, db))
}

func TestEnsureSeededCompletesPartialSeed(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Status{Etat: Unread}).Error)

	catalog := NewCatalog(db)
	require.NoError(t, catalog.EnsureSeeded())

	assert.Equal(t, int64(2), countStatuses(t, db))
	_, err := catalog.Lookup(Read)
	assert.NoError(t, err)
}

func TestLookupUnknownLabel(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	require.NoError(t, catalog.EnsureSeeded())

	_, err := catalog.Lookup("archivé")
	assert.Error(t, err)
}

func TestCreateRejectsDuplicateLabel(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalog(db)
	require.NoError(t, catalog.EnsureSeeded())

	_, err := catalog.Create("brouillon")
	require.NoError(t, err)

	_, err = catalog.Create("brouillon")
	assert.Error(t, err)

	statuses, err := catalog.List()
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
}
