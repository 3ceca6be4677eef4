package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/pandeptwidyaop/simple404/internal/db/models"
)

// TestConnect_SQLite tests SQLite database connection.
func TestConnect_SQLite(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

// TestConnect_SQLiteFile tests SQLite with file path.
func TestConnect_SQLiteFile(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}

// TestConnect_SQLiteCaseInsensitive tests SQLite driver name is case insensitive.
func TestConnect_SQLiteCaseInsensitive(t *testing.T) {
	for _, driver := range []string{"sqlite", "SQLITE", "SQLite"} {
		t.Run(driver, func(t *testing.T) {
			db, err := Connect(Config{Driver: driver, Database: ":memory:"})
			require.NoError(t, err)
			require.NotNil(t, db)
		})
	}
}

// TestConnect_NetworkDriverNames tests that postgres and mysql names are recognized.
func TestConnect_NetworkDriverNames(t *testing.T) {
	// No server is running; only the driver name check is under test.
	for _, driver := range []string{"postgres", "postgresql", "POSTGRES", "mysql", "MariaDB"} {
		t.Run(driver, func(t *testing.T) {
			_, err := Connect(Config{
				Driver:   driver,
				Host:     "127.0.0.1",
				Port:     1,
				Database: "test",
				Username: "test",
				Password: "test",
				SSLMode:  "disable",
			})
			if err != nil {
				assert.NotContains(t, err.Error(), "unsupported database driver")
			}
		})
	}
}

// TestConnect_UnsupportedDriver tests unsupported database driver.
func TestConnect_UnsupportedDriver(t *testing.T) {
	db, err := Connect(Config{Driver: "oracle", Database: "test"})
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

// TestSQLLogLevel tests SQL log level mapping.
func TestSQLLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected logger.LogLevel
	}{
		{"silent", "silent", logger.Silent},
		{"error", "error", logger.Error},
		{"warn", "warn", logger.Warn},
		{"info", "info", logger.Info},
		{"empty defaults to silent", "", logger.Silent},
		{"uppercase", "INFO", logger.Info},
		{"mixed case", "Warn", logger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sqlLogLevel(tt.logLevel))
		})
	}
}

// TestAutoMigrate tests automatic migration.
func TestAutoMigrate(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"options", "users"} {
		t.Run("table_"+table, func(t *testing.T) {
			assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
		})
	}
}

// TestAutoMigrate_CreateRecords tests creating records after migration.
func TestAutoMigrate_CreateRecords(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	opt := &models.Option{
		Name:  "simple-404-log",
		Value: models.JSONText(`{"http://example.com/a":["1.2.3.4",100]}`),
	}
	require.NoError(t, db.Create(opt).Error)

	var loaded models.Option
	require.NoError(t, db.First(&loaded, "name = ?", "simple-404-log").Error)
	assert.JSONEq(t, `{"http://example.com/a":["1.2.3.4",100]}`, string(loaded.Value))
	assert.False(t, loaded.Autoload)

	user := &models.User{
		Username: "admin",
		Password: "hashed",
		Role:     models.RoleAdministrator,
	}
	require.NoError(t, db.Create(user).Error)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsActive)
}
