package handler

import (
	"net/http"
	"time"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatusResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      StatusResponse `json:"status"`
	Deadline    time.Time      `json:"deadline"`
	IsOverdue   bool           `json:"is_overdue"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TaskDetailResponse is a task together with its subtasks.
type TaskDetailResponse struct {
	TaskResponse
	SubTasks []SubTaskResponse `json:"subtasks"`
}

type SubTaskResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      StatusResponse `json:"status"`
	Deadline    time.Time      `json:"deadline"`
	IsOverdue   bool           `json:"is_overdue"`
	TaskID      string         `json:"task_id"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TaskBrief is the parent task as embedded in a subtask detail.
type TaskBrief struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      StatusResponse `json:"status"`
	Deadline    time.Time      `json:"deadline"`
}

type SubTaskDetailResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      StatusResponse `json:"status"`
	Deadline    time.Time      `json:"deadline"`
	IsOverdue   bool           `json:"is_overdue"`
	Task        TaskBrief      `json:"task"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PageResponse is the envelope of every paginated list.
type PageResponse struct {
	Count    int64       `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newStatusResponse(s model.Status) StatusResponse {
	return StatusResponse{ID: s.ID.String(), Name: s.Name}
}

func newTaskResponse(t *model.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      newStatusResponse(t.Status),
		Deadline:    t.Deadline,
		IsOverdue:   t.IsOverdue(now),
		CreatedAt:   t.CreatedAt,
	}
}

func newTaskDetailResponse(t *model.Task, now time.Time) TaskDetailResponse {
	return TaskDetailResponse{
		TaskResponse: newTaskResponse(t, now),
		SubTasks:     newSubTaskResponses(t.SubTasks, now),
	}
}

func newSubTaskResponse(s *model.SubTask, now time.Time) SubTaskResponse {
	return SubTaskResponse{
		ID:          s.ID.String(),
		Title:       s.Title,
		Description: s.Description,
		Status:      newStatusResponse(s.Status),
		Deadline:    s.Deadline,
		IsOverdue:   s.IsOverdue(now),
		TaskID:      s.TaskID.String(),
		CreatedAt:   s.CreatedAt,
	}
}

func newSubTaskResponses(subtasks []model.SubTask, now time.Time) []SubTaskResponse {
	out := make([]SubTaskResponse, 0, len(subtasks))
	for i := range subtasks {
		out = append(out, newSubTaskResponse(&subtasks[i], now))
	}
	return out
}

func newSubTaskDetailResponse(s *model.SubTask, now time.Time) SubTaskDetailResponse {
	return SubTaskDetailResponse{
		ID:          s.ID.String(),
		Title:       s.Title,
		Description: s.Description,
		Status:      newStatusResponse(s.Status),
		Deadline:    s.Deadline,
		IsOverdue:   s.IsOverdue(now),
		Task: TaskBrief{
			ID:          s.Task.ID.String(),
			Title:       s.Task.Title,
			Description: s.Task.Description,
			Status:      newStatusResponse(s.Task.Status),
			Deadline:    s.Task.Deadline,
		},
		CreatedAt: s.CreatedAt,
	}
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func newPageResponse(filter repository.ListFilter, total int64, results interface{}) PageResponse {
	page, size := filter.Pagination()
	return PageResponse{Count: total, Page: page, PageSize: size, Results: results}
}

// internalError logs err and answers with a generic 500.
func internalError(c *gin.Context, log *zap.SugaredLogger, msg string, err error) {
	_ = c.Error(err)
	log.Errorw(msg, "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// pathID parses the :id segment, answering 404 for anything that is not a uuid.
func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return uuid.Nil, false
	}
	return id, true
}
