package handler

import (
	"time"

	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListQuery holds the query parameters accepted by the task and subtask lists.
// status takes a status id or a status name.
type ListQuery struct {
	Status      string `form:"status"`
	StatusID    string `form:"status_id" binding:"omitempty,uuid"`
	StatusName  string `form:"status__name"`
	Deadline    string `form:"deadline"`
	DeadlineLTE string `form:"deadline__lte"`
	DeadlineGTE string `form:"deadline__gte"`
	Search      string `form:"search"`
	Overdue     bool   `form:"overdue"`
	TaskID      string `form:"task_id" binding:"omitempty,uuid"`
	Ordering    string `form:"ordering" binding:"omitempty,ordering"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1"`
}

// parseListQuery binds the query string into a repository filter.
// task_id is only honoured when withTask is set.
func parseListQuery(c *gin.Context, withTask bool, now time.Time) (repository.ListFilter, bool) {
	var q ListQuery
	if !bindQuery(c, &q) {
		return repository.ListFilter{}, false
	}

	filter := repository.ListFilter{
		StatusName: q.StatusName,
		Search:     q.Search,
		Overdue:    q.Overdue,
		Ordering:   q.Ordering,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Now:        now,
	}

	if q.StatusID != "" {
		id := uuid.MustParse(q.StatusID)
		filter.StatusID = &id
	}
	if q.Status != "" {
		if id, err := uuid.Parse(q.Status); err == nil {
			filter.StatusID = &id
		} else if filter.StatusName == "" {
			filter.StatusName = q.Status
		}
	}
	if withTask && q.TaskID != "" {
		id := uuid.MustParse(q.TaskID)
		filter.TaskID = &id
	}

	fields := map[string]string{}
	parse := func(name, value string) *time.Time {
		t, err := parseTimeParam(value)
		if err != nil {
			fields[name] = "Enter a valid date/time."
		}
		return t
	}
	filter.Deadline = parse("deadline", q.Deadline)
	filter.DeadlineLTE = parse("deadline__lte", q.DeadlineLTE)
	filter.DeadlineGTE = parse("deadline__gte", q.DeadlineGTE)
	if len(fields) > 0 {
		validationFailed(c, fields)
		return repository.ListFilter{}, false
	}

	return filter, true
}
