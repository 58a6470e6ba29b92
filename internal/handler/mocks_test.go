package handler_test

import (
	"context"
	"sync"
	"time"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// Мок репозитория статусов
type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) Create(ctx context.Context, status *model.Status) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockStatusRepository) List(ctx context.Context) ([]model.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Status), args.Error(1)
}

func (m *MockStatusRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Status, error) {
	args := m.Called(ctx, id)
	status := args.Get(0)
	if status == nil {
		return nil, args.Error(1)
	}
	return status.(*model.Status), args.Error(1)
}

func (m *MockStatusRepository) GetOrCreate(ctx context.Context, name string) (*model.Status, error) {
	args := m.Called(ctx, name)
	status := args.Get(0)
	if status == nil {
		return nil, args.Error(1)
	}
	return status.(*model.Status), args.Error(1)
}

func (m *MockStatusRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStatusRepository) Update(ctx context.Context, status *model.Status) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockStatusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, filter repository.ListFilter) ([]model.Task, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Task), args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) Upcoming(ctx context.Context, now time.Time, limit int) ([]model.Task, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Total(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockTaskRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) CountWithoutDescription(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Мок репозитория подзадач
type MockSubTaskRepository struct {
	mock.Mock
}

func (m *MockSubTaskRepository) Create(ctx context.Context, subtask *model.SubTask) error {
	args := m.Called(ctx, subtask)
	return args.Error(0)
}

func (m *MockSubTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SubTask, error) {
	args := m.Called(ctx, id)
	subtask := args.Get(0)
	if subtask == nil {
		return nil, args.Error(1)
	}
	return subtask.(*model.SubTask), args.Error(1)
}

func (m *MockSubTaskRepository) List(ctx context.Context, filter repository.ListFilter) ([]model.SubTask, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.SubTask), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubTaskRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.SubTask, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]model.SubTask), args.Error(1)
}

func (m *MockSubTaskRepository) Update(ctx context.Context, subtask *model.SubTask) error {
	args := m.Called(ctx, subtask)
	return args.Error(0)
}

func (m *MockSubTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubTaskRepository) Total(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubTaskRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockSubTaskRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubTaskRepository) CountWithoutDescription(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// memoryTokenStore хранит выданные и отозванные refresh-токены в памяти
type memoryTokenStore struct {
	mu          sync.Mutex
	outstanding map[string]uuid.UUID
	blacklisted map[string]time.Time
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		outstanding: map[string]uuid.UUID{},
		blacklisted: map[string]time.Time{},
	}
}

func (s *memoryTokenStore) RecordOutstanding(_ context.Context, jti string, userID uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outstanding[jti] = userID
	return nil
}

func (s *memoryTokenStore) Blacklist(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklisted[jti] = expiresAt
	return nil
}

func (s *memoryTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blacklisted[jti]
	return ok, nil
}

func (s *memoryTokenStore) Rotate(_ context.Context, oldJTI string, oldExpiresAt time.Time, next model.OutstandingToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blacklisted[oldJTI]; ok {
		return repository.ErrDuplicate
	}
	s.blacklisted[oldJTI] = oldExpiresAt
	s.outstanding[next.JTI] = next.UserID
	return nil
}
