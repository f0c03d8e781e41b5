package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/argussec/argusgo/internal/models"
)

// GormStore keeps records in the kv_records table. This is the daemon
// default so queued operations survive agent restarts and power loss.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle. The kv_records table must be
// migrated before first use (database.Connect does this).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get returns the stored value for key, or ErrNotFound
func (s *GormStore) Get(key string) ([]byte, error) {
	var rec models.KVRecord
	if err := s.db.First(&rec, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

// Set upserts the value for key
func (s *GormStore) Set(key string, value []byte) error {
	rec := models.KVRecord{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *GormStore) Delete(key string) error {
	if err := s.db.Delete(&models.KVRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
