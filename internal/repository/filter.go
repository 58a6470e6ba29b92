package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// orderings whitelists the values accepted in ?ordering=.
var orderings = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"deadline":    "deadline ASC",
	"-deadline":   "deadline DESC",
	"title":       "title ASC",
	"-title":      "title DESC",
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ValidOrdering reports whether value is an accepted ?ordering= value.
func ValidOrdering(value string) bool {
	_, ok := orderings[value]
	return ok
}

// ListFilter holds the list query parameters shared by tasks and subtasks.
type ListFilter struct {
	StatusID    *uuid.UUID
	StatusName  string
	Deadline    *time.Time
	DeadlineLTE *time.Time
	DeadlineGTE *time.Time
	Search      string
	Overdue     bool
	TaskID      *uuid.UUID // subtasks only
	Ordering    string
	Page        int
	PageSize    int
	Now         time.Time
}

func (f ListFilter) apply(db *gorm.DB) *gorm.DB {
	if f.StatusID != nil {
		db = db.Where("status_id = ?", *f.StatusID)
	}
	if f.StatusName != "" {
		db = db.Where("status_id IN (SELECT id FROM statuses WHERE name = ?)", f.StatusName)
	}
	if f.Deadline != nil {
		db = db.Where("deadline = ?", *f.Deadline)
	}
	if f.DeadlineLTE != nil {
		db = db.Where("deadline <= ?", *f.DeadlineLTE)
	}
	if f.DeadlineGTE != nil {
		db = db.Where("deadline >= ?", *f.DeadlineGTE)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + likeEscaper.Replace(s) + "%"
		db = db.Where(`title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\'`, pattern, pattern)
	}
	if f.Overdue {
		db = db.Where("deadline < ?", f.now())
	}
	if f.TaskID != nil {
		db = db.Where("task_id = ?", *f.TaskID)
	}
	return db
}

func (f ListFilter) now() time.Time {
	if f.Now.IsZero() {
		return time.Now()
	}
	return f.Now
}

func (f ListFilter) order() string {
	if o, ok := orderings[f.Ordering]; ok {
		return o + ", id ASC"
	}
	return "created_at ASC, id ASC"
}

func (f ListFilter) limit() int {
	switch {
	case f.PageSize <= 0:
		return DefaultPageSize
	case f.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return f.PageSize
}

func (f ListFilter) offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.limit()
}

// Pagination reports the page number and page size the query actually uses.
func (f ListFilter) Pagination() (page, size int) {
	page = f.Page
	if page < 1 {
		page = 1
	}
	return page, f.limit()
}
