package repository

import (
	"context"
	"errors"
	"time"

	"streetrelay/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsoleRepository interface {
	Create(ctx context.Context, console *entity.Console) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Console, error)
	FindByUser(ctx context.Context, userID string) (*entity.Console, error)
	AdvanceMarker(ctx context.Context, id uuid.UUID, expected time.Time, next time.Time) (bool, error)
	UpdateDeviceName(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type consoleRepository struct {
	db *gorm.DB
}

func NewConsoleRepository(db *gorm.DB) ConsoleRepository {
	return &consoleRepository{db: db}
}

func (r *consoleRepository) Create(ctx context.Context, c *entity.Console) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *consoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Console, error) {
	var console entity.Console
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&console).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &console, nil
}

func (r *consoleRepository) FindByUser(ctx context.Context, userID string) (*entity.Console, error) {
	var console entity.Console
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&console).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &console, nil
}

// AdvanceMarker moves the rotation marker from expected to next as a single
// compare-and-update. It reports false when the stored marker no longer
// equals expected, which is how a concurrent refresh loses the race.
func (r *consoleRepository) AdvanceMarker(ctx context.Context, id uuid.UUID, expected time.Time, next time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Console{}).
		Where("id = ? AND token_issued_at = ?", id, expected).
		Update("token_issued_at", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *consoleRepository) UpdateDeviceName(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Console{}).
		Where("id = ?", id).
		Update("device_name", name).
		Error
}

func (r *consoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.Console{}).
		Error
}
