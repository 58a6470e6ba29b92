package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskmanager/internal/model"
)

type StatusRepository struct {
	db *gorm.DB
}

type StatusRepositoryInterface interface {
	Create(ctx context.Context, status *model.Status) error
	List(ctx context.Context) ([]model.Status, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Status, error)
	GetOrCreate(ctx context.Context, name string) (*model.Status, error)
	ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, status *model.Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ StatusRepositoryInterface = (*StatusRepository)(nil)

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) Create(ctx context.Context, status *model.Status) error {
	return translate(r.db.WithContext(ctx).Create(status).Error)
}

func (r *StatusRepository) List(ctx context.Context) ([]model.Status, error) {
	var statuses []model.Status
	err := r.db.WithContext(ctx).Order("name").Find(&statuses).Error
	return statuses, err
}

func (r *StatusRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Status, error) {
	var status model.Status
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	return &status, nil
}

// GetOrCreate returns the status with the given name, creating it first if needed.
// A concurrent insert of the same name is resolved by reading the winner.
func (r *StatusRepository) GetOrCreate(ctx context.Context, name string) (*model.Status, error) {
	var status model.Status
	err := r.db.WithContext(ctx).Where(model.Status{Name: name}).FirstOrCreate(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(translate(err), ErrDuplicate) {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&status).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// ExistsByName reports whether another status already uses name.
// Pass uuid.Nil as excludeID when creating.
func (r *StatusRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Status{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *StatusRepository) Update(ctx context.Context, status *model.Status) error {
	result := r.db.WithContext(ctx).Model(&model.Status{}).
		Where("id = ?", status.ID).
		Update("name", status.Name)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStatusNotFound
	}
	return nil
}

func (r *StatusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Status{}, "id = ?", id)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return ErrStatusInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusNotFound
	}
	return nil
}
