package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workboard/internal/board"
	"workboard/internal/model"
)

type StatusResponse struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Label        string `json:"label"`
	Color        string `json:"color"`
	Position     int    `json:"position"`
}

type TaskResponse struct {
	ID           string     `json:"id"`
	DepartmentID string     `json:"department_id"`
	StatusID     *string    `json:"status_id"`
	Title        string     `json:"title"`
	Priority     string     `json:"priority,omitempty"`
	AssignedTo   *string    `json:"assigned_to,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type LaneResponse struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	Synthetic bool            `json:"synthetic"`
	Status    *StatusResponse `json:"status,omitempty"`
	Tasks     []TaskResponse  `json:"tasks"`
}

type BoardResponse struct {
	Grouped bool           `json:"grouped"`
	Lanes   []LaneResponse `json:"lanes"`
}

type MoveResponse struct {
	State string        `json:"state"`
	Board BoardResponse `json:"board"`
}

func newStatusResponse(s model.Status) StatusResponse {
	return StatusResponse{
		ID:           s.ID.String(),
		DepartmentID: s.ScopeID.String(),
		Label:        s.Label,
		Color:        s.Color,
		Position:     s.Position,
	}
}

func newTaskResponse(t model.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID.String(),
		DepartmentID: t.ScopeID.String(),
		StatusID:     uuidString(t.StatusID),
		Title:        t.Title,
		Priority:     t.Priority,
		AssignedTo:   uuidString(t.AssignedTo),
		DueDate:      t.DueDate,
	}
}

func newBoardResponse(b board.Board) BoardResponse {
	resp := BoardResponse{Grouped: b.Grouped, Lanes: make([]LaneResponse, len(b.Lanes))}
	for i, l := range b.Lanes {
		lane := LaneResponse{
			Key:       l.Key,
			Synthetic: l.Synthetic(),
			Tasks:     make([]TaskResponse, len(l.Tasks)),
		}
		if l.Synthetic() {
			lane.Label = board.UnassignedLaneLabel
		} else {
			status := newStatusResponse(l.Status)
			lane.Label = l.Status.Label
			lane.Status = &status
		}
		for j, t := range l.Tasks {
			lane.Tasks[j] = newTaskResponse(t)
		}
		resp.Lanes[i] = lane
	}
	return resp
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseUUIDParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// writeBoardError maps board errors onto HTTP statuses.
func writeBoardError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, board.ErrEmptyLabel), errors.Is(err, board.ErrReservedLabel):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrDuplicateLabel):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, board.ErrStatusNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Status not found"})
	case errors.Is(err, board.ErrUnknownLane),
		errors.Is(err, board.ErrUnknownScope),
		errors.Is(err, board.ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
