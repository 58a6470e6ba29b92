package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmanager/internal/handler"
	"taskmanager/internal/logger"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type taskMocks struct {
	tasks    *MockTaskRepository
	subtasks *MockSubTaskRepository
	statuses *MockStatusRepository
}

func setupTaskRouter() (*gin.Engine, taskMocks) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m := taskMocks{
		tasks:    new(MockTaskRepository),
		subtasks: new(MockSubTaskRepository),
		statuses: new(MockStatusRepository),
	}

	h := handler.NewTaskHandler(m.tasks, m.subtasks, m.statuses, logger.Nop())
	tasks := r.Group("/api/tasks")
	tasks.GET("", h.List)
	tasks.POST("", h.Create)
	tasks.POST("/create", h.Create)
	tasks.GET("/:id", h.Get)
	tasks.PUT("/:id", h.Update)
	tasks.PATCH("/:id", h.Patch)
	tasks.DELETE("/:id", h.Delete)
	tasks.GET("/:id/subtasks", h.SubTasks)

	return r, m
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func future(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func todoStatus() *model.Status {
	return &model.Status{ID: uuid.New(), Name: model.StatusToDo}
}

func sampleTask(status *model.Status) *model.Task {
	return &model.Task{
		ID:          uuid.New(),
		Title:       "Buy milk",
		Description: "2 litres",
		StatusID:    status.ID,
		Status:      *status,
		Deadline:    time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second),
		CreatedAt:   time.Now().Add(-time.Hour).UTC().Truncate(time.Second),
	}
}

func TestCreateTask_DefaultsToToDo(t *testing.T) {
	// Arrange
	router, m := setupTaskRouter()
	todo := todoStatus()

	m.statuses.On("GetOrCreate", mock.Anything, model.StatusToDo).Return(todo, nil)
	m.tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.Title == "Buy milk" && task.StatusID == todo.ID
	})).Return(nil)

	// Act
	resp := doJSON(router, "POST", "/api/tasks", gin.H{
		"title":       "  Buy milk ",
		"description": "2 litres",
		"deadline":    future(48 * time.Hour),
	})

	// Assert
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var task handler.TaskResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &task))
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, model.StatusToDo, task.Status.Name)
	assert.Equal(t, todo.ID.String(), task.Status.ID)
	assert.False(t, task.IsOverdue)

	m.tasks.AssertExpectations(t)
	m.statuses.AssertExpectations(t)
}

func TestCreateTask_AliasRoute(t *testing.T) {
	router, m := setupTaskRouter()
	done := &model.Status{ID: uuid.New(), Name: model.StatusDone}

	m.statuses.On("GetByID", mock.Anything, done.ID).Return(done, nil)
	m.tasks.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	resp := doJSON(router, "POST", "/api/tasks/create", gin.H{
		"title":     "Ship release",
		"status_id": done.ID.String(),
		"deadline":  future(time.Hour),
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), model.StatusDone)
}

func TestCreateTask_PastDeadline(t *testing.T) {
	router, m := setupTaskRouter()

	resp := doJSON(router, "POST", "/api/tasks", gin.H{
		"title":    "Too late",
		"deadline": time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decodeFields(t, resp)
	assert.Equal(t, "Deadline cannot be in the past.", fields["deadline"])
	m.tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateTask_MissingFields(t *testing.T) {
	router, _ := setupTaskRouter()

	resp := doJSON(router, "POST", "/api/tasks", gin.H{"title": "   "})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decodeFields(t, resp)
	assert.Equal(t, "This field may not be blank.", fields["title"])
	assert.Equal(t, "This field is required.", fields["deadline"])
}

func TestCreateTask_UnknownStatus(t *testing.T) {
	router, m := setupTaskRouter()
	missing := uuid.New()

	m.statuses.On("GetByID", mock.Anything, missing).Return(nil, repository.ErrStatusNotFound)

	resp := doJSON(router, "POST", "/api/tasks", gin.H{
		"title":     "Task",
		"status_id": missing.String(),
		"deadline":  future(time.Hour),
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decodeFields(t, resp)
	assert.Equal(t, "Invalid status.", fields["status_id"])
	m.tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListTasks_Pagination(t *testing.T) {
	router, m := setupTaskRouter()
	task := sampleTask(todoStatus())

	m.tasks.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.Search == "milk" && f.Page == 2 && f.PageSize == 5 &&
			f.Ordering == "-deadline" && f.Overdue && f.StatusName == "To Do"
	})).Return([]model.Task{*task}, int64(6), nil)

	req, _ := http.NewRequest("GET", "/api/tasks?search=milk&page=2&page_size=5&ordering=-deadline&overdue=true&status__name=To+Do", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var page struct {
		Count    int64                  `json:"count"`
		Page     int                    `json:"page"`
		PageSize int                    `json:"page_size"`
		Results  []handler.TaskResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, int64(6), page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
	require.Len(t, page.Results, 1)
	assert.Equal(t, task.ID.String(), page.Results[0].ID)
	assert.Equal(t, model.StatusToDo, page.Results[0].Status.Name)
}

func TestListTasks_Defaults(t *testing.T) {
	router, m := setupTaskRouter()

	m.tasks.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.Page == 0 && f.PageSize == 0 && f.StatusID == nil && f.TaskID == nil
	})).Return([]model.Task{}, int64(0), nil)

	req, _ := http.NewRequest("GET", "/api/tasks?task_id="+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"count":0,"page":1,"page_size":20,"results":[]}`, resp.Body.String())
}

func TestListTasks_InvalidQuery(t *testing.T) {
	router, m := setupTaskRouter()

	req, _ := http.NewRequest("GET", "/api/tasks?ordering=priority&status_id=abc&deadline__lte=yesterday", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decodeFields(t, resp)
	assert.Equal(t, "Invalid ordering.", fields["ordering"])
	assert.Equal(t, "Must be a valid UUID.", fields["status_id"])
	m.tasks.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListTasks_StatusByName(t *testing.T) {
	router, m := setupTaskRouter()

	m.tasks.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.StatusName == model.StatusDone && f.StatusID == nil
	})).Return([]model.Task{}, int64(0), nil)

	req, _ := http.NewRequest("GET", "/api/tasks?status=Done", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	m.tasks.AssertExpectations(t)
}

func TestListTasks_StatusByID(t *testing.T) {
	router, m := setupTaskRouter()
	statusID := uuid.New()

	m.tasks.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.StatusID != nil && *f.StatusID == statusID && f.StatusName == ""
	})).Return([]model.Task{}, int64(0), nil)

	req, _ := http.NewRequest("GET", "/api/tasks?status="+statusID.String(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	m.tasks.AssertExpectations(t)
}

func TestGetTask_WithSubTasks(t *testing.T) {
	router, m := setupTaskRouter()
	status := todoStatus()
	task := sampleTask(status)
	task.SubTasks = []model.SubTask{{
		ID:        uuid.New(),
		Title:     "Find shop",
		StatusID:  status.ID,
		Status:    *status,
		Deadline:  time.Now().Add(-time.Hour),
		TaskID:    task.ID,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}}

	m.tasks.On("GetDetail", mock.Anything, task.ID).Return(task, nil)

	resp := doJSON(router, "GET", "/api/tasks/"+task.ID.String(), nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var detail handler.TaskDetailResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Equal(t, task.ID.String(), detail.ID)
	require.Len(t, detail.SubTasks, 1)
	assert.Equal(t, "Find shop", detail.SubTasks[0].Title)
	assert.True(t, detail.SubTasks[0].IsOverdue)
	assert.Equal(t, model.StatusToDo, detail.SubTasks[0].Status.Name)
}

func TestGetTask_NotFound(t *testing.T) {
	router, m := setupTaskRouter()
	id := uuid.New()
	m.tasks.On("GetDetail", mock.Anything, id).Return(nil, repository.ErrTaskNotFound)

	resp := doJSON(router, "GET", "/api/tasks/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(router, "GET", "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateTask_Put(t *testing.T) {
	router, m := setupTaskRouter()
	status := todoStatus()
	task := sampleTask(status)
	progress := &model.Status{ID: uuid.New(), Name: model.StatusInProgress}

	m.tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	m.statuses.On("GetByID", mock.Anything, progress.ID).Return(progress, nil)
	m.tasks.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Task) bool {
		return u.ID == task.ID && u.Title == "Buy oat milk" && u.Description == "" && u.StatusID == progress.ID
	})).Return(nil)

	resp := doJSON(router, "PUT", "/api/tasks/"+task.ID.String(), gin.H{
		"title":     "Buy oat milk",
		"status_id": progress.ID.String(),
		"deadline":  future(72 * time.Hour),
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), model.StatusInProgress)
	m.tasks.AssertExpectations(t)
}

func TestPatchTask_KeepsUnsentFields(t *testing.T) {
	router, m := setupTaskRouter()
	status := todoStatus()
	task := sampleTask(status)
	deadline := task.Deadline

	m.tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	m.tasks.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Task) bool {
		return u.Title == "Renamed" && u.Description == "2 litres" &&
			u.StatusID == status.ID && u.Deadline.Equal(deadline)
	})).Return(nil)

	resp := doJSON(router, "PATCH", "/api/tasks/"+task.ID.String(), gin.H{"title": "Renamed"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated handler.TaskResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.StatusToDo, updated.Status.Name)
	m.statuses.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	m.statuses.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
}

func TestPatchTask_PastDeadline(t *testing.T) {
	router, m := setupTaskRouter()
	task := sampleTask(todoStatus())
	m.tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

	resp := doJSON(router, "PATCH", "/api/tasks/"+task.ID.String(), gin.H{
		"deadline": time.Now().Add(-time.Minute).UTC().Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decodeFields(t, resp)
	assert.Equal(t, "Deadline cannot be in the past.", fields["deadline"])
	m.tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPatchTask_BlankTitle(t *testing.T) {
	router, m := setupTaskRouter()
	task := sampleTask(todoStatus())
	m.tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

	resp := doJSON(router, "PATCH", "/api/tasks/"+task.ID.String(), gin.H{"title": " "})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	m.tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteTask(t *testing.T) {
	router, m := setupTaskRouter()
	id := uuid.New()
	missing := uuid.New()

	m.tasks.On("Delete", mock.Anything, id).Return(nil)
	m.tasks.On("Delete", mock.Anything, missing).Return(repository.ErrTaskNotFound)

	resp := doJSON(router, "DELETE", "/api/tasks/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = doJSON(router, "DELETE", "/api/tasks/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTaskSubTasks(t *testing.T) {
	router, m := setupTaskRouter()
	status := todoStatus()
	taskID := uuid.New()
	subtask := model.SubTask{ID: uuid.New(), Title: "Step 1", Status: *status, TaskID: taskID, Deadline: time.Now().Add(time.Hour)}

	m.tasks.On("Exists", mock.Anything, taskID).Return(true, nil)
	m.subtasks.On("ListByTask", mock.Anything, taskID).Return([]model.SubTask{subtask}, nil)

	resp := doJSON(router, "GET", "/api/tasks/"+taskID.String()+"/subtasks", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body handler.SubTaskListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, taskID.String(), body.TaskID)
	require.Len(t, body.SubTasks, 1)
	assert.Equal(t, "Step 1", body.SubTasks[0].Title)
}

func TestTaskSubTasks_TaskMissing(t *testing.T) {
	router, m := setupTaskRouter()
	taskID := uuid.New()
	m.tasks.On("Exists", mock.Anything, taskID).Return(false, nil)

	resp := doJSON(router, "GET", "/api/tasks/"+taskID.String()+"/subtasks", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	m.subtasks.AssertNotCalled(t, "ListByTask", mock.Anything, mock.Anything)
}
