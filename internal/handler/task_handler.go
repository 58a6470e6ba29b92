package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks    repository.TaskRepositoryInterface
	subtasks repository.SubTaskRepositoryInterface
	statuses repository.StatusRepositoryInterface
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewTaskHandler(
	tasks repository.TaskRepositoryInterface,
	subtasks repository.SubTaskRepositoryInterface,
	statuses repository.StatusRepositoryInterface,
	log *zap.SugaredLogger,
) *TaskHandler {
	registerValidators()
	return &TaskHandler{
		tasks:    tasks,
		subtasks: subtasks,
		statuses: statuses,
		log:      log,
		now:      time.Now,
	}
}

// TaskRequest is the body of create and full update.
type TaskRequest struct {
	Title       string     `json:"title" binding:"required,notblank,max=200"`
	Description string     `json:"description"`
	StatusID    string     `json:"status_id" binding:"omitempty,uuid"`
	Deadline    *time.Time `json:"deadline" binding:"required,notpast"`
}

// TaskPatchRequest is the body of a partial update; absent fields are kept.
type TaskPatchRequest struct {
	Title       *string    `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string    `json:"description"`
	StatusID    *string    `json:"status_id" binding:"omitempty,uuid"`
	Deadline    *time.Time `json:"deadline" binding:"omitempty,notpast"`
}

// SubTaskListResponse is the body of GET /api/tasks/{id}/subtasks.
type SubTaskListResponse struct {
	TaskID   string            `json:"task_id"`
	SubTasks []SubTaskResponse `json:"subtasks"`
}

// List godoc
// @Summary      List tasks
// @Description  Filter by status, status__name, deadline, deadline__lte, deadline__gte, search and overdue.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status         query     string  false  "Status ID or name"
// @Param        status_id      query     string  false  "Status ID"
// @Param        status__name   query     string  false  "Status name"
// @Param        deadline__lte  query     string  false  "Deadline upper bound"
// @Param        deadline__gte  query     string  false  "Deadline lower bound"
// @Param        search         query     string  false  "Search in title and description"
// @Param        overdue        query     bool    false  "Only overdue tasks"
// @Param        ordering       query     string  false  "created_at, deadline or title; prefix with - for descending"
// @Param        page           query     int     false  "Page number"
// @Param        page_size      query     int     false  "Page size"
// @Success      200  {object}  PageResponse
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	now := h.now()
	filter, ok := parseListQuery(c, false, now)
	if !ok {
		return
	}

	tasks, total, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve tasks", err)
		return
	}

	results := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		results = append(results, newTaskResponse(&tasks[i], now))
	}
	c.JSON(http.StatusOK, newPageResponse(filter, total, results))
}

// Create godoc
// @Summary      Create a task
// @Description  Without status_id the task gets the "To Do" status.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        task  body      TaskRequest  true  "Task"
// @Success      201   {object}  TaskResponse
// @Failure      400   {object}  map[string]interface{}
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	status, ok := requestStatus(c, h.statuses, h.log, req.StatusID, nil)
	if !ok {
		return
	}

	task := &model.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StatusID:    status.ID,
		Deadline:    *req.Deadline,
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		internalError(c, h.log, "Failed to create task", err)
		return
	}
	task.Status = *status

	h.log.Infow("task created", "task_id", task.ID)
	c.JSON(http.StatusCreated, newTaskResponse(task, h.now()))
}

// Get godoc
// @Summary      Get a task with its subtasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  TaskDetailResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "Task not found")
	if !ok {
		return
	}

	task, err := h.tasks.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskDetailResponse(task, h.now()))
}

// Update godoc
// @Summary      Replace a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Task ID"
// @Param        task  body      TaskRequest  true  "Task"
// @Success      200   {object}  TaskResponse
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "Task not found")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}

	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	status, ok := requestStatus(c, h.statuses, h.log, req.StatusID, &task.Status)
	if !ok {
		return
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.Deadline = *req.Deadline
	h.save(c, task, status)
}

// Patch godoc
// @Summary      Partially update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Task ID"
// @Param        task  body      TaskPatchRequest  true  "Changed fields"
// @Success      200   {object}  TaskResponse
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /api/tasks/{id} [patch]
func (h *TaskHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "Task not found")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}

	var req TaskPatchRequest
	if !bindJSON(c, &req) {
		return
	}

	statusID := ""
	if req.StatusID != nil {
		statusID = *req.StatusID
	}
	status, ok := requestStatus(c, h.statuses, h.log, statusID, &task.Status)
	if !ok {
		return
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Deadline != nil {
		task.Deadline = *req.Deadline
	}
	h.save(c, task, status)
}

// Delete godoc
// @Summary      Delete a task and its subtasks
// @Tags         tasks
// @Security     BearerAuth
// @Param        id  path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "Task not found")
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		h.lookupFailed(c, err)
		return
	}

	h.log.Infow("task deleted", "task_id", id)
	c.Status(http.StatusNoContent)
}

// SubTasks godoc
// @Summary      List the subtasks of a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  SubTaskListResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id}/subtasks [get]
func (h *TaskHandler) SubTasks(c *gin.Context) {
	id, ok := pathID(c, "Task not found")
	if !ok {
		return
	}

	exists, err := h.tasks.Exists(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve task", err)
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	subtasks, err := h.subtasks.ListByTask(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve subtasks", err)
		return
	}

	c.JSON(http.StatusOK, SubTaskListResponse{
		TaskID:   id.String(),
		SubTasks: newSubTaskResponses(subtasks, h.now()),
	})
}

func (h *TaskHandler) save(c *gin.Context, task *model.Task, status *model.Status) {
	task.StatusID = status.ID
	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		h.lookupFailed(c, err)
		return
	}
	task.Status = *status
	c.JSON(http.StatusOK, newTaskResponse(task, h.now()))
}

func (h *TaskHandler) lookupFailed(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	internalError(c, h.log, "Failed to process task", err)
}
