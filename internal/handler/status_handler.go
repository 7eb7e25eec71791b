package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workboard/internal/board"
	"workboard/internal/model"
)

type StatusLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Status, error)
}

type StatusHandler struct {
	resolver
	statuses StatusLookup
}

func NewStatusHandler(boards Boards, departments DepartmentRepository, access Access, statuses StatusLookup, log logrus.FieldLogger) *StatusHandler {
	return &StatusHandler{
		resolver: resolver{boards: boards, departments: departments, access: access, log: log},
		statuses: statuses,
	}
}

type CreateStatusRequest struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type UpdateStatusRequest struct {
	Label *string `json:"label"`
	Color *string `json:"color"`
}

type ReorderStatusesRequest struct {
	FromIndex int `json:"from_index"`
	ToIndex   int `json:"to_index"`
}

type ReorderResponse struct {
	State    string           `json:"state"`
	Statuses []StatusResponse `json:"statuses"`
}

// Create godoc
// @Summary      Create a status
// @Description  Appends a lane at the end of the department
// @Tags         Statuses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string               true  "Department ID"
// @Param        status  body  CreateStatusRequest  true  "Label and color"
// @Success      201  {object}  StatusResponse
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /departments/{id}/statuses [post]
func (h *StatusHandler) Create(c *gin.Context) {
	departmentID, ok := parseUUIDParam(c, "id", "department")
	if !ok {
		return
	}

	var req CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	e := h.department(c, departmentID, model.RoleEditor)
	if e == nil {
		return
	}

	status, err := e.CreateLane(c.Request.Context(), departmentID, req.Label, req.Color)
	if err != nil {
		h.logFailure(err, "create status", departmentID)
		writeBoardError(c, err, "Failed to create status")
		return
	}

	c.JSON(http.StatusCreated, newStatusResponse(status))
}

// Reorder godoc
// @Summary      Reorder statuses
// @Description  Moves the lane at from_index to to_index and persists every position in the background
// @Tags         Statuses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string                  true  "Department ID"
// @Param        order  body  ReorderStatusesRequest  true  "Indexes"
// @Success      202  {object}  ReorderResponse
// @Failure      400  {object}  map[string]string
// @Router       /departments/{id}/statuses/reorder [post]
func (h *StatusHandler) Reorder(c *gin.Context) {
	departmentID, ok := parseUUIDParam(c, "id", "department")
	if !ok {
		return
	}

	var req ReorderStatusesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	e := h.department(c, departmentID, model.RoleEditor)
	if e == nil {
		return
	}

	m, err := e.ReorderLane(c.Request.Context(), departmentID, req.FromIndex, req.ToIndex)
	if err != nil {
		writeBoardError(c, err, "Failed to reorder statuses")
		return
	}

	statuses := e.Statuses().InScope(departmentID)
	resp := ReorderResponse{State: m.State().String(), Statuses: make([]StatusResponse, len(statuses))}
	for i, s := range statuses {
		resp.Statuses[i] = newStatusResponse(s)
	}
	c.JSON(http.StatusAccepted, resp)
}

// Update godoc
// @Summary      Rename or recolor a status
// @Tags         Statuses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string               true  "Status ID"
// @Param        status  body  UpdateStatusRequest  true  "Fields to change"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /statuses/{id} [put]
func (h *StatusHandler) Update(c *gin.Context) {
	statusID, ok := parseUUIDParam(c, "id", "status")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	e, status := h.statusBoard(c, statusID)
	if e == nil {
		return
	}

	err := e.UpdateLane(c.Request.Context(), statusID, model.StatusFields{Label: req.Label, Color: req.Color})
	if err != nil {
		h.logFailure(err, "update status", status.ScopeID)
		writeBoardError(c, err, "Failed to update status")
		return
	}

	updated, ok := e.Statuses().ByID(statusID)
	if !ok {
		// The reload after the write failed; answer with what was asked for.
		updated = *status
		if req.Label != nil {
			updated.Label = *req.Label
		}
		if req.Color != nil {
			updated.Color = *req.Color
		}
	}
	c.JSON(http.StatusOK, newStatusResponse(updated))
}

// Delete godoc
// @Summary      Delete a status
// @Description  Tasks in the lane are kept and show up as unassigned
// @Tags         Statuses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Status ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /statuses/{id} [delete]
func (h *StatusHandler) Delete(c *gin.Context) {
	statusID, ok := parseUUIDParam(c, "id", "status")
	if !ok {
		return
	}

	e, status := h.statusBoard(c, statusID)
	if e == nil {
		return
	}

	if err := e.DeleteLane(c.Request.Context(), statusID); err != nil {
		h.logFailure(err, "delete status", status.ScopeID)
		writeBoardError(c, err, "Failed to delete status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status deleted successfully"})
}

// statusBoard finds the department board that owns statusID.
func (h *StatusHandler) statusBoard(c *gin.Context, statusID uuid.UUID) (*board.Engine, *model.Status) {
	status, err := h.statuses.GetByID(c.Request.Context(), statusID)
	if err != nil {
		h.log.WithError(err).WithField("status", statusID).Error("failed to look up status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status"})
		return nil, nil
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Status not found"})
		return nil, nil
	}

	e := h.department(c, status.ScopeID, model.RoleEditor)
	if e == nil {
		return nil, nil
	}
	if _, ok := e.Statuses().ByID(statusID); !ok {
		// Created elsewhere and not seen by this board yet.
		if err := e.Reload(c.Request.Context()); err != nil {
			h.log.WithError(err).WithField("status", statusID).Warn("board reload failed")
		}
	}
	return e, status
}

func (h *StatusHandler) logFailure(err error, op string, departmentID uuid.UUID) {
	var perr *board.PersistenceError
	if errors.As(err, &perr) {
		h.log.WithError(err).WithFields(logrus.Fields{"op": op, "department": departmentID}).Error("status write failed")
	}
}
