package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// StatusCount is one row of a per-status aggregate.
type StatusCount struct {
	Name  string
	Count int64
}

// counters implements the statistics queries shared by tasks and subtasks.
type counters struct {
	db    *gorm.DB
	table string
}

func (c counters) Total(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Table(c.table).Count(&n).Error
	return n, err
}

func (c counters) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []StatusCount
	err := c.db.WithContext(ctx).
		Table(c.table).
		Select("statuses.name AS name, COUNT(" + c.table + ".id) AS count").
		Joins("JOIN statuses ON statuses.id = " + c.table + ".status_id").
		Group("statuses.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Count
	}
	return out, nil
}

func (c counters) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Table(c.table).Where("deadline < ?", now).Count(&n).Error
	return n, err
}

func (c counters) CountWithoutDescription(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Table(c.table).Where("description = ?", "").Count(&n).Error
	return n, err
}
