package migration_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/multidelivery/painel/pkg/migration"
)

type table struct{ name string }

func (m table) Up(db *gorm.DB) error {
	return db.Exec("CREATE TABLE " + m.name + " (id INTEGER PRIMARY KEY)").Error
}

func (m table) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db
}

func TestRunAndRollback(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer

	first := []migration.Entry{
		{Name: "2026_01_01_000001_create_a", Migration: table{"a"}},
	}
	require.NoError(t, migration.NewWith(db, &out, first).Run())

	all := append(first, migration.Entry{Name: "2026_01_02_000001_create_b", Migration: table{"b"}})
	r := migration.NewWith(db, &out, all)

	pending, err := r.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026_01_02_000001_create_b"}, pending)

	require.NoError(t, r.Run())
	assert.True(t, db.Migrator().HasTable("a"))
	assert.True(t, db.Migrator().HasTable("b"))

	require.NoError(t, r.Rollback())
	assert.True(t, db.Migrator().HasTable("a"))
	assert.False(t, db.Migrator().HasTable("b"))

	out.Reset()
	require.NoError(t, r.Status())
	assert.Contains(t, out.String(), "2026_01_01_000001_create_a")
	assert.Contains(t, out.String(), "Pending")
}

func TestRunNothingPending(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer
	r := migration.NewWith(db, &out, nil)
	require.NoError(t, r.Run())
	require.NoError(t, r.Rollback())
	assert.Contains(t, out.String(), "Nothing to migrate.")
	assert.Contains(t, out.String(), "Nothing to roll back.")
}
