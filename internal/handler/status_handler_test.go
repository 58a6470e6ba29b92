package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

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

func setupStatusRouter() (*gin.Engine, *MockStatusRepository) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	repo := new(MockStatusRepository)

	h := handler.NewStatusHandler(repo, logger.Nop())
	statuses := r.Group("/api/statuses")
	statuses.GET("", h.List)
	statuses.POST("", h.Create)
	statuses.GET("/:id", h.Get)
	statuses.PUT("/:id", h.Update)
	statuses.DELETE("/:id", h.Delete)

	return r, repo
}

func TestListStatuses(t *testing.T) {
	router, repo := setupStatusRouter()
	repo.On("List", mock.Anything).Return([]model.Status{
		{ID: uuid.New(), Name: model.StatusDone},
		{ID: uuid.New(), Name: model.StatusToDo},
	}, nil)

	resp := doJSON(router, "GET", "/api/statuses", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var statuses []handler.StatusResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &statuses))
	assert.Len(t, statuses, 2)
}

func TestCreateStatus_Success(t *testing.T) {
	router, repo := setupStatusRouter()
	repo.On("ExistsByName", mock.Anything, "Blocked", uuid.Nil).Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Status) bool {
		return s.Name == "Blocked"
	})).Return(nil)

	resp := doJSON(router, "POST", "/api/statuses", gin.H{"name": " Blocked "})

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Blocked"`)
	repo.AssertExpectations(t)
}

func TestCreateStatus_Duplicate(t *testing.T) {
	router, repo := setupStatusRouter()
	repo.On("ExistsByName", mock.Anything, model.StatusDone, uuid.Nil).Return(true, nil)

	resp := doJSON(router, "POST", "/api/statuses", gin.H{"name": model.StatusDone})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decodeFields(t, resp)
	assert.Equal(t, "Status with this name already exists.", fields["name"])
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateStatus_ExcludesItself(t *testing.T) {
	router, repo := setupStatusRouter()
	id := uuid.New()
	repo.On("ExistsByName", mock.Anything, "Review", id).Return(false, nil)
	repo.On("Update", mock.Anything, &model.Status{ID: id, Name: "Review"}).Return(nil)

	resp := doJSON(router, "PUT", "/api/statuses/"+id.String(), gin.H{"name": "Review"})

	assert.Equal(t, http.StatusOK, resp.Code)
	repo.AssertExpectations(t)
}

func TestGetStatus_NotFound(t *testing.T) {
	router, repo := setupStatusRouter()
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, repository.ErrStatusNotFound)

	resp := doJSON(router, "GET", "/api/statuses/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteStatus_InUse(t *testing.T) {
	router, repo := setupStatusRouter()
	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(repository.ErrStatusInUse)

	resp := doJSON(router, "DELETE", "/api/statuses/"+id.String(), nil)

	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "Status is used by existing tasks")
}

func TestDeleteStatus_Success(t *testing.T) {
	router, repo := setupStatusRouter()
	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(nil)

	resp := doJSON(router, "DELETE", "/api/statuses/"+id.String(), nil)

	assert.Equal(t, http.StatusNoContent, resp.Code)
}
