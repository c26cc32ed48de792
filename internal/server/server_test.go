package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootReleasesLogSinkWhenDatabaseFails(t *testing.T) {
	closed := 0
	orig := enableMongoLog
	enableMongoLog = func(uri, db, collection string) (func(), error) {
		assert.Equal(t, "mongodb://logs:27017", uri)
		return func() { closed++ }, nil
	}
	t.Cleanup(func() { enableMongoLog = orig })

	t.Setenv("LOG_MONGO_URI", "mongodb://logs:27017")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "missing", "painel.db"))

	app, err := Boot()
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Equal(t, 1, closed)
}
