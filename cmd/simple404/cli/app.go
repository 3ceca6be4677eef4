package cli

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pandeptwidyaop/simple404/internal/config"
	"github.com/pandeptwidyaop/simple404/internal/db"
	"github.com/pandeptwidyaop/simple404/internal/notfound"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

// bootstrap loads the config, sets up logging and opens a migrated database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := setupLogger(cfg); err != nil {
		return nil, nil, err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, database, nil
}

func setupLogger(cfg *config.Config) error {
	if err := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	logger.DebugEvent().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.Database).
		Msg("Connecting to database")

	database, err := db.Connect(db.Config{
		Driver:      cfg.Database.Driver,
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		SSLMode:     cfg.Database.SSLMode,
		SQLLogLevel: cfg.Database.SQLLogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

func displayFormats(d config.DisplayConfig) notfound.DisplayFormats {
	return notfound.DisplayFormats{
		Date:     d.DateFormat,
		Time:     d.TimeFormat,
		Location: d.Location(),
	}
}

func recorderOptions(n config.NotFoundConfig) []notfound.RecorderOption {
	opts := []notfound.RecorderOption{notfound.WithTrustForwardedHost(n.TrustForwardedHost)}
	if n.SerializeWrites {
		opts = append(opts, notfound.WithSerializedWrites())
	}
	return opts
}
