package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubTaskHandler struct {
	subtasks repository.SubTaskRepositoryInterface
	tasks    repository.TaskRepositoryInterface
	statuses repository.StatusRepositoryInterface
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewSubTaskHandler(
	subtasks repository.SubTaskRepositoryInterface,
	tasks repository.TaskRepositoryInterface,
	statuses repository.StatusRepositoryInterface,
	log *zap.SugaredLogger,
) *SubTaskHandler {
	registerValidators()
	return &SubTaskHandler{
		subtasks: subtasks,
		tasks:    tasks,
		statuses: statuses,
		log:      log,
		now:      time.Now,
	}
}

type SubTaskRequest struct {
	Title       string     `json:"title" binding:"required,notblank,max=200"`
	Description string     `json:"description"`
	StatusID    string     `json:"status_id" binding:"omitempty,uuid"`
	Deadline    *time.Time `json:"deadline" binding:"required,notpast"`
	TaskID      string     `json:"task_id" binding:"required,uuid"`
}

// SubTaskPatchRequest is the body of a partial update. created_at is not accepted.
type SubTaskPatchRequest struct {
	Title       *string    `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string    `json:"description"`
	StatusID    *string    `json:"status_id" binding:"omitempty,uuid"`
	Deadline    *time.Time `json:"deadline" binding:"omitempty,notpast"`
	TaskID      *string    `json:"task_id" binding:"omitempty,uuid"`
}

// List godoc
// @Summary      List subtasks
// @Description  Accepts the task list filters plus task_id.
// @Tags         subtasks
// @Produce      json
// @Security     BearerAuth
// @Param        task_id        query     string  false  "Parent task ID"
// @Param        status         query     string  false  "Status ID or name"
// @Param        status_id      query     string  false  "Status ID"
// @Param        status__name   query     string  false  "Status name"
// @Param        search         query     string  false  "Search in title and description"
// @Param        overdue        query     bool    false  "Only overdue subtasks"
// @Param        ordering       query     string  false  "created_at, deadline or title; prefix with - for descending"
// @Param        page           query     int     false  "Page number"
// @Param        page_size      query     int     false  "Page size"
// @Success      200  {object}  PageResponse
// @Failure      400  {object}  map[string]interface{}
// @Router       /api/subtasks [get]
func (h *SubTaskHandler) List(c *gin.Context) {
	now := h.now()
	filter, ok := parseListQuery(c, true, now)
	if !ok {
		return
	}

	subtasks, total, err := h.subtasks.List(c.Request.Context(), filter)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve subtasks", err)
		return
	}
	c.JSON(http.StatusOK, newPageResponse(filter, total, newSubTaskResponses(subtasks, now)))
}

// Create godoc
// @Summary      Create a subtask
// @Tags         subtasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        subtask  body      SubTaskRequest  true  "Subtask"
// @Success      201      {object}  SubTaskDetailResponse
// @Failure      400      {object}  map[string]interface{}
// @Router       /api/subtasks [post]
func (h *SubTaskHandler) Create(c *gin.Context) {
	var req SubTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	taskID, ok := h.parentTask(c, req.TaskID)
	if !ok {
		return
	}
	status, ok := requestStatus(c, h.statuses, h.log, req.StatusID, nil)
	if !ok {
		return
	}

	subtask := &model.SubTask{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StatusID:    status.ID,
		Deadline:    *req.Deadline,
		TaskID:      taskID,
	}
	if err := h.subtasks.Create(c.Request.Context(), subtask); err != nil {
		internalError(c, h.log, "Failed to create subtask", err)
		return
	}

	h.log.Infow("subtask created", "subtask_id", subtask.ID, "task_id", taskID)
	h.respondDetail(c, http.StatusCreated, subtask.ID)
}

// Get godoc
// @Summary      Get a subtask with its parent task
// @Tags         subtasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subtask ID"
// @Success      200  {object}  SubTaskDetailResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/subtasks/{id} [get]
func (h *SubTaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "Subtask not found")
	if !ok {
		return
	}
	h.respondDetail(c, http.StatusOK, id)
}

// Update godoc
// @Summary      Replace a subtask
// @Tags         subtasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Subtask ID"
// @Param        subtask  body      SubTaskRequest  true  "Subtask"
// @Success      200      {object}  SubTaskDetailResponse
// @Failure      400      {object}  map[string]interface{}
// @Failure      404      {object}  map[string]string
// @Router       /api/subtasks/{id} [put]
func (h *SubTaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "Subtask not found")
	if !ok {
		return
	}

	subtask, err := h.subtasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}

	var req SubTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	taskID, ok := h.parentTask(c, req.TaskID)
	if !ok {
		return
	}
	status, ok := requestStatus(c, h.statuses, h.log, req.StatusID, &subtask.Status)
	if !ok {
		return
	}

	subtask.Title = strings.TrimSpace(req.Title)
	subtask.Description = req.Description
	subtask.Deadline = *req.Deadline
	subtask.TaskID = taskID
	subtask.StatusID = status.ID
	h.save(c, subtask)
}

// Patch godoc
// @Summary      Partially update a subtask
// @Tags         subtasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Subtask ID"
// @Param        subtask  body      SubTaskPatchRequest  true  "Changed fields"
// @Success      200      {object}  SubTaskDetailResponse
// @Failure      400      {object}  map[string]interface{}
// @Failure      404      {object}  map[string]string
// @Router       /api/subtasks/{id} [patch]
func (h *SubTaskHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "Subtask not found")
	if !ok {
		return
	}

	subtask, err := h.subtasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}

	var req SubTaskPatchRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.TaskID != nil {
		taskID, ok := h.parentTask(c, *req.TaskID)
		if !ok {
			return
		}
		subtask.TaskID = taskID
	}

	statusID := ""
	if req.StatusID != nil {
		statusID = *req.StatusID
	}
	status, ok := requestStatus(c, h.statuses, h.log, statusID, &subtask.Status)
	if !ok {
		return
	}
	subtask.StatusID = status.ID

	if req.Title != nil {
		subtask.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		subtask.Description = *req.Description
	}
	if req.Deadline != nil {
		subtask.Deadline = *req.Deadline
	}
	h.save(c, subtask)
}

// Delete godoc
// @Summary      Delete a subtask
// @Tags         subtasks
// @Security     BearerAuth
// @Param        id  path  string  true  "Subtask ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/subtasks/{id} [delete]
func (h *SubTaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "Subtask not found")
	if !ok {
		return
	}

	if err := h.subtasks.Delete(c.Request.Context(), id); err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SubTaskHandler) save(c *gin.Context, subtask *model.SubTask) {
	if err := h.subtasks.Update(c.Request.Context(), subtask); err != nil {
		h.lookupFailed(c, err)
		return
	}
	h.respondDetail(c, http.StatusOK, subtask.ID)
}

// respondDetail reloads the subtask so the response carries its status and parent task.
func (h *SubTaskHandler) respondDetail(c *gin.Context, code int, id uuid.UUID) {
	subtask, err := h.subtasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.JSON(code, newSubTaskDetailResponse(subtask, h.now()))
}

// parentTask checks that the referenced task exists, answering 400 otherwise.
func (h *SubTaskHandler) parentTask(c *gin.Context, raw string) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(raw)
	if err != nil {
		validationFailed(c, map[string]string{"task_id": "Invalid task."})
		return uuid.Nil, false
	}

	exists, err := h.tasks.Exists(c.Request.Context(), taskID)
	if err != nil {
		internalError(c, h.log, "Failed to retrieve task", err)
		return uuid.Nil, false
	}
	if !exists {
		validationFailed(c, map[string]string{"task_id": "Invalid task."})
		return uuid.Nil, false
	}
	return taskID, true
}

func (h *SubTaskHandler) lookupFailed(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrSubTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
		return
	}
	internalError(c, h.log, "Failed to process subtask", err)
}
