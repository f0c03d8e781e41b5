package models

import (
	"time"

	"gorm.io/datatypes"
)

// KVRecord backs the agent's durable key/value store. The queue's logical
// records (queue, incidents, failure archive, status) live here as jsonb.
type KVRecord struct {
	Key       string         `gorm:"column:key;primaryKey;type:varchar(255)" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name
func (KVRecord) TableName() string {
	return "kv_records"
}

// SyncPass records one replay pass for diagnostics and history queries
type SyncPass struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	StartedAt   time.Time      `gorm:"column:started_at;not null;index" json:"startedAt"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completedAt"`
	Duration    int            `gorm:"column:duration;default:0" json:"duration"` // milliseconds
	Processed   int            `gorm:"column:processed;default:0" json:"processed"`
	Retried     int            `gorm:"column:retried;default:0" json:"retried"`
	Failed      int            `gorm:"column:failed;default:0" json:"failed"`
	Aborted     bool           `gorm:"column:aborted;default:false" json:"aborted"`
	ErrorDetail string         `gorm:"column:error_detail;type:text" json:"errorDetail"`
	Debug       datatypes.JSON `gorm:"column:debug;type:jsonb" json:"debug"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"-"`
}

// TableName specifies the table name
func (SyncPass) TableName() string {
	return "sync_passes"
}
