package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// legacyScanBatch bounds how many unindexed rows are decoded per query
// while looking for a shape.
const legacyScanBatch = 200

// PostgresStore persists rooms and events with gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string, logLevel logger.LogLevel) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Room{}, &Event{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("[STORE] Database connected and migrated")
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an already opened connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRoom(ctx context.Context, slug, adminID string) (*Room, error) {
	room := &Room{Slug: slug, AdminID: adminID}
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (s *PostgresStore) RoomExists(ctx context.Context, roomID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Room{}).
		Where("id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up room: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, e *Event) error {
	if e.ShapeID == "" {
		e.ShapeID = ShapeIDOf(e.Message)
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, roomID uint) ([]Event, error) {
	exists, err := s.RoomExists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	events := []Event{}
	err = s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) DeleteShape(ctx context.Context, roomID uint, shapeID string) (bool, error) {
	var event Event
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND shape_id = ?", roomID, shapeID).
		Order("id ASC").
		First(&event).Error
	switch {
	case err == nil:
		return s.deleteEvent(ctx, event.ID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("failed to find event: %w", err)
	}

	// Rows stored before shape_id was populated are matched by payload.
	var lastID uint
	for {
		var batch []Event
		err := s.db.WithContext(ctx).
			Where("room_id = ? AND (shape_id IS NULL OR shape_id = '') AND id > ?", roomID, lastID).
			Order("id ASC").
			Limit(legacyScanBatch).
			Find(&batch).Error
		if err != nil {
			return false, fmt.Errorf("failed to scan events: %w", err)
		}
		for _, e := range batch {
			if ShapeIDOf(e.Message) == shapeID {
				return s.deleteEvent(ctx, e.ID)
			}
		}
		if len(batch) < legacyScanBatch {
			return false, nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

func (s *PostgresStore) deleteEvent(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&Event{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
