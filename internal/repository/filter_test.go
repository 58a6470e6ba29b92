package repository

import (
	"testing"

	"taskmanager/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestListFilter_Pagination(t *testing.T) {
	tests := []struct {
		name           string
		filter         ListFilter
		page, size     int
		expectedOffset int
	}{
		{"defaults", ListFilter{}, 1, DefaultPageSize, 0},
		{"second page", ListFilter{Page: 2, PageSize: 5}, 2, 5, 5},
		{"clamped size", ListFilter{Page: 3, PageSize: 1000}, 3, MaxPageSize, 2 * MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := tt.filter.Pagination()
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.size, size)
			assert.Equal(t, tt.expectedOffset, tt.filter.offset())
		})
	}
}

func TestListFilter_Order(t *testing.T) {
	assert.Equal(t, "created_at ASC, id ASC", ListFilter{}.order())
	assert.Equal(t, "deadline DESC, id ASC", ListFilter{Ordering: "-deadline"}.order())
	assert.Equal(t, "created_at ASC, id ASC", ListFilter{Ordering: "priority"}.order())

	assert.True(t, ValidOrdering("title"))
	assert.False(t, ValidOrdering("id; DROP TABLE tasks"))
}

func TestListFilter_SearchMatchesWildcardsLiterally(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		DryRun: true,
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	tests := []struct {
		search  string
		pattern string
	}{
		{"50%_off", `%50\%\_off%`},
		{"_", `%\_%`},
		{`C:\tmp`, `%C:\\tmp%`},
		{"Slides", "%Slides%"},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			var tasks []model.Task
			stmt := ListFilter{Search: tt.search}.apply(db.Model(&model.Task{})).Find(&tasks).Statement

			assert.Contains(t, stmt.SQL.String(), `title ILIKE $1 ESCAPE '\' OR description ILIKE $2 ESCAPE '\'`)
			assert.Equal(t, []interface{}{tt.pattern, tt.pattern}, stmt.Vars)
		})
	}
}
