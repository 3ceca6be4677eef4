package options

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pandeptwidyaop/simple404/internal/db/models"
	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
)

// GormStore keeps options in the "options" table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by db. The options table must exist
// (see db.AutoMigrate).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, name string) ([]byte, error) {
	var opt models.Option
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrOptionNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get option")
	}
	return []byte(opt.Value), nil
}

// Set implements Store. The write is a single upsert statement.
func (s *GormStore) Set(ctx context.Context, name string, value []byte) error {
	opt := models.Option{Name: name, Value: models.JSONText(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&opt).Error
	if err != nil {
		return pkgerrors.Wrap(err, "set option")
	}
	return nil
}

// Add implements Store.
func (s *GormStore) Add(ctx context.Context, name string, value []byte, autoload bool) error {
	opt := models.Option{Name: name, Value: models.JSONText(value), Autoload: autoload}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&opt)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "add option")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptionExists
	}
	return nil
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Option{}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "delete option")
	}
	return nil
}
