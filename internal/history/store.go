// Package history persists scene-switch activity to a local sqlite
// database for later reporting.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultDBName = "history.db"
	defaultDBDir  = ".config/scenewatch"
)

// SwitchRecord is one attempted scene switch as stored on disk.
type SwitchRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
	Monitor     int       `gorm:"not null" json:"monitor"`
	Application string    `gorm:"not null;index" json:"application"`
	WindowTitle string    `gorm:"not null" json:"window_title"`
	Scene       string    `gorm:"not null;index" json:"scene"`
	Success     bool      `gorm:"not null;default:true" json:"success"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SceneSummary aggregates switch counts per scene.
type SceneSummary struct {
	Scene    string    `json:"scene"`
	Switches int64     `json:"switches"`
	Failures int64     `json:"failures"`
	LastSeen time.Time `json:"last_seen"`
}

// DefaultPath returns the database location used when the config leaves
// history.path empty.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dbDir := filepath.Join(homeDir, defaultDBDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	return filepath.Join(dbDir, defaultDBName), nil
}

// Store wraps the sqlite database holding switch records.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path, or the default
// location when path is empty, and migrates the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.AutoMigrate(&SwitchRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Record inserts one switch record.
func (s *Store) Record(rec *SwitchRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if result := s.db.Create(rec); result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert switch record")
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(limit int) ([]SwitchRecord, error) {
	var records []SwitchRecord
	result := s.db.Order("timestamp DESC").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query switch records")
	}
	return records, nil
}

// Totals aggregates switch activity per scene since the given time.
// Simple query returning raw records; the aggregation happens here.
func (s *Store) Totals(since time.Time) ([]SceneSummary, error) {
	var records []SwitchRecord
	result := s.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&records)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query switch records")
	}

	byScene := make(map[string]*SceneSummary)
	for _, rec := range records {
		summary, ok := byScene[rec.Scene]
		if !ok {
			summary = &SceneSummary{Scene: rec.Scene}
			byScene[rec.Scene] = summary
		}
		if rec.Success {
			summary.Switches++
		} else {
			summary.Failures++
		}
		if rec.Timestamp.After(summary.LastSeen) {
			summary.LastSeen = rec.Timestamp
		}
	}

	summaries := make([]SceneSummary, 0, len(byScene))
	for _, summary := range byScene {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Switches == summaries[j].Switches {
			return summaries[i].Scene < summaries[j].Scene
		}
		return summaries[i].Switches > summaries[j].Switches
	})
	return summaries, nil
}
