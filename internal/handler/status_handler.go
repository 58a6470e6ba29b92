package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errUnknownStatus = errors.New("unknown status")

type StatusHandler struct {
	statuses repository.StatusRepositoryInterface
	log      *zap.SugaredLogger
}

func NewStatusHandler(statuses repository.StatusRepositoryInterface, log *zap.SugaredLogger) *StatusHandler {
	registerValidators()
	return &StatusHandler{statuses: statuses, log: log}
}

type StatusRequest struct {
	Name string `json:"name" binding:"required,notblank,max=50"`
}

// resolveStatus returns the status named by rawID, or fallback when rawID is
// empty. A nil fallback means the default "To Do" status.
func resolveStatus(ctx context.Context, statuses repository.StatusRepositoryInterface, rawID string, fallback *model.Status) (*model.Status, error) {
	if rawID == "" {
		if fallback != nil {
			return fallback, nil
		}
		return statuses.GetOrCreate(ctx, model.StatusToDo)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errUnknownStatus
	}
	status, err := statuses.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStatusNotFound) {
		return nil, errUnknownStatus
	}
	return status, err
}

// requestStatus resolves the status of a task or subtask request,
// answering 400 for unknown ids.
func requestStatus(c *gin.Context, statuses repository.StatusRepositoryInterface, log *zap.SugaredLogger, rawID string, fallback *model.Status) (*model.Status, bool) {
	status, err := resolveStatus(c.Request.Context(), statuses, rawID, fallback)
	if errors.Is(err, errUnknownStatus) {
		validationFailed(c, map[string]string{"status_id": "Invalid status."})
		return nil, false
	}
	if err != nil {
		internalError(c, log, "Failed to resolve status", err)
		return nil, false
	}
	return status, true
}

// List godoc
// @Summary      List statuses
// @Tags         statuses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  StatusResponse
// @Router       /api/statuses [get]
func (h *StatusHandler) List(c *gin.Context) {
	statuses, err := h.statuses.List(c.Request.Context())
	if err != nil {
		internalError(c, h.log, "Failed to retrieve statuses", err)
		return
	}

	out := make([]StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, newStatusResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// Create godoc
// @Summary      Create a status
// @Tags         statuses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        status  body      StatusRequest  true  "Status"
// @Success      201     {object}  StatusResponse
// @Failure      400     {object}  map[string]interface{}
// @Router       /api/statuses [post]
func (h *StatusHandler) Create(c *gin.Context) {
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if !h.nameAvailable(c, req.Name, uuid.Nil) {
		return
	}

	status := &model.Status{Name: req.Name}
	if err := h.statuses.Create(c.Request.Context(), status); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			validationFailed(c, map[string]string{"name": "Status with this name already exists."})
			return
		}
		internalError(c, h.log, "Failed to create status", err)
		return
	}

	c.JSON(http.StatusCreated, newStatusResponse(*status))
}

// Get godoc
// @Summary      Get a status
// @Tags         statuses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Status ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/statuses/{id} [get]
func (h *StatusHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "Status not found")
	if !ok {
		return
	}

	status, err := h.statuses.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(*status))
}

// Update godoc
// @Summary      Rename a status
// @Tags         statuses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string         true  "Status ID"
// @Param        status  body      StatusRequest  true  "Status"
// @Success      200     {object}  StatusResponse
// @Failure      400     {object}  map[string]interface{}
// @Failure      404     {object}  map[string]string
// @Router       /api/statuses/{id} [put]
func (h *StatusHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "Status not found")
	if !ok {
		return
	}

	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if !h.nameAvailable(c, req.Name, id) {
		return
	}

	status := &model.Status{ID: id, Name: req.Name}
	if err := h.statuses.Update(c.Request.Context(), status); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			validationFailed(c, map[string]string{"name": "Status with this name already exists."})
			return
		}
		h.lookupFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, newStatusResponse(*status))
}

// Delete godoc
// @Summary      Delete a status
// @Description  Fails with 409 while tasks or subtasks still use the status.
// @Tags         statuses
// @Security     BearerAuth
// @Param        id  path  string  true  "Status ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/statuses/{id} [delete]
func (h *StatusHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "Status not found")
	if !ok {
		return
	}

	err := h.statuses.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, repository.ErrStatusInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "Status is used by existing tasks"})
	default:
		h.lookupFailed(c, err)
	}
}

func (h *StatusHandler) nameAvailable(c *gin.Context, name string, excludeID uuid.UUID) bool {
	taken, err := h.statuses.ExistsByName(c.Request.Context(), name, excludeID)
	if err != nil {
		internalError(c, h.log, "Failed to check status name", err)
		return false
	}
	if taken {
		validationFailed(c, map[string]string{"name": "Status with this name already exists."})
		return false
	}
	return true
}

func (h *StatusHandler) lookupFailed(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrStatusNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Status not found"})
		return
	}
	internalError(c, h.log, "Failed to retrieve status", err)
}
