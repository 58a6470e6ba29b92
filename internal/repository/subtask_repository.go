package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmanager/internal/model"
)

type SubTaskRepository struct {
	db *gorm.DB
	counters
}

type SubTaskRepositoryInterface interface {
	Create(ctx context.Context, subtask *model.SubTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SubTask, error)
	List(ctx context.Context, filter ListFilter) ([]model.SubTask, int64, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.SubTask, error)
	Update(ctx context.Context, subtask *model.SubTask) error
	Delete(ctx context.Context, id uuid.UUID) error
	Total(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountWithoutDescription(ctx context.Context) (int64, error)
}

var _ SubTaskRepositoryInterface = (*SubTaskRepository)(nil)

func NewSubTaskRepository(db *gorm.DB) *SubTaskRepository {
	return &SubTaskRepository{db: db, counters: counters{db: db, table: "subtasks"}}
}

func (r *SubTaskRepository) Create(ctx context.Context, subtask *model.SubTask) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(subtask).Error)
}

// GetByID retrieves a subtask with its status and parent task
func (r *SubTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SubTask, error) {
	var subtask model.SubTask
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Task.Status").
		First(&subtask, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubTaskNotFound
		}
		return nil, err
	}
	return &subtask, nil
}

func (r *SubTaskRepository) List(ctx context.Context, filter ListFilter) ([]model.SubTask, int64, error) {
	var total int64
	if err := filter.apply(r.db.WithContext(ctx).Model(&model.SubTask{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subtasks []model.SubTask
	err := filter.apply(r.db.WithContext(ctx).Model(&model.SubTask{})).
		Preload("Status").
		Preload("Task.Status").
		Order(filter.order()).
		Offset(filter.offset()).
		Limit(filter.limit()).
		Find(&subtasks).Error
	if err != nil {
		return nil, 0, err
	}
	return subtasks, total, nil
}

// ListByTask returns every subtask of a task, oldest first
func (r *SubTaskRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.SubTask, error) {
	var subtasks []model.SubTask
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Task.Status").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&subtasks).Error
	return subtasks, err
}

// Update writes the editable fields. created_at is never touched.
func (r *SubTaskRepository) Update(ctx context.Context, subtask *model.SubTask) error {
	result := r.db.WithContext(ctx).Model(&model.SubTask{}).
		Where("id = ?", subtask.ID).
		Updates(map[string]interface{}{
			"title":       subtask.Title,
			"description": subtask.Description,
			"status_id":   subtask.StatusID,
			"deadline":    subtask.Deadline,
			"task_id":     subtask.TaskID,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

func (r *SubTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.SubTask{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}
