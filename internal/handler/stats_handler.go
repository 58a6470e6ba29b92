package handler

import (
	"context"
	"net/http"
	"time"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpcomingLimit is how many upcoming deadlines the statistics report.
const UpcomingLimit = 3

type StatsHandler struct {
	tasks    repository.TaskRepositoryInterface
	subtasks repository.SubTaskRepositoryInterface
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewStatsHandler(
	tasks repository.TaskRepositoryInterface,
	subtasks repository.SubTaskRepositoryInterface,
	log *zap.SugaredLogger,
) *StatsHandler {
	return &StatsHandler{tasks: tasks, subtasks: subtasks, log: log, now: time.Now}
}

type CollectionStats struct {
	Total              int64            `json:"total"`
	ByStatus           map[string]int64 `json:"by_status"`
	Overdue            int64            `json:"overdue"`
	WithoutDescription int64            `json:"without_description"`
}

type UpcomingDeadline struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Deadline  time.Time `json:"deadline"`
	DaysUntil int       `json:"days_until"`
}

type Stats struct {
	Tasks             CollectionStats    `json:"tasks"`
	SubTasks          CollectionStats    `json:"subtasks"`
	UpcomingDeadlines []UpcomingDeadline `json:"upcoming_deadlines"`
}

type StatsResponse struct {
	Stats     Stats     `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// counterSource is the statistics surface shared by tasks and subtasks.
type counterSource interface {
	Total(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountWithoutDescription(ctx context.Context) (int64, error)
}

// Get godoc
// @Summary      Task and subtask statistics
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatsResponse
// @Router       /api/stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()

	taskStats, err := collect(ctx, h.tasks, now)
	if err != nil {
		internalError(c, h.log, "Failed to compute statistics", err)
		return
	}
	subtaskStats, err := collect(ctx, h.subtasks, now)
	if err != nil {
		internalError(c, h.log, "Failed to compute statistics", err)
		return
	}

	upcoming, err := h.tasks.Upcoming(ctx, now, UpcomingLimit)
	if err != nil {
		internalError(c, h.log, "Failed to compute statistics", err)
		return
	}
	deadlines := make([]UpcomingDeadline, 0, len(upcoming))
	for _, t := range upcoming {
		deadlines = append(deadlines, UpcomingDeadline{
			ID:        t.ID.String(),
			Title:     t.Title,
			Deadline:  t.Deadline,
			DaysUntil: int(t.Deadline.Sub(now).Hours() / 24),
		})
	}

	c.JSON(http.StatusOK, StatsResponse{
		Stats: Stats{
			Tasks:             taskStats,
			SubTasks:          subtaskStats,
			UpcomingDeadlines: deadlines,
		},
		Timestamp: now,
		Success:   true,
	})
}

func collect(ctx context.Context, src counterSource, now time.Time) (CollectionStats, error) {
	var (
		out CollectionStats
		err error
	)
	if out.Total, err = src.Total(ctx); err != nil {
		return out, err
	}
	if out.ByStatus, err = src.CountByStatus(ctx); err != nil {
		return out, err
	}
	if out.Overdue, err = src.CountOverdue(ctx, now); err != nil {
		return out, err
	}
	if out.WithoutDescription, err = src.CountWithoutDescription(ctx); err != nil {
		return out, err
	}

	if out.ByStatus == nil {
		out.ByStatus = map[string]int64{}
	}
	for _, name := range model.DefaultStatuses {
		if _, ok := out.ByStatus[name]; !ok {
			out.ByStatus[name] = 0
		}
	}
	return out, nil
}
