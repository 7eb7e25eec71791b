package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workboard/internal/board"
	"workboard/internal/model"
)

// Boards hands out shared, loaded board engines.
type Boards interface {
	Get(ctx context.Context, scopes []uuid.UUID, grouped bool) (*board.Engine, error)
}

type DepartmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	GetByWorkspaceID(ctx context.Context, workspaceID uuid.UUID) ([]model.Department, error)
}

type BoardHandler struct {
	resolver
}

func NewBoardHandler(boards Boards, departments DepartmentRepository, access Access, log logrus.FieldLogger) *BoardHandler {
	return &BoardHandler{resolver{boards: boards, departments: departments, access: access, log: log}}
}

type MoveTaskRequest struct {
	SourceLane  string `json:"source_lane" binding:"required"`
	DestLane    string `json:"dest_lane" binding:"required"`
	SourceIndex int    `json:"source_index"`
	DestIndex   int    `json:"dest_index"`
}

func (h *BoardHandler) departmentBoard(c *gin.Context, required model.Role) *board.Engine {
	departmentID, ok := parseUUIDParam(c, "id", "department")
	if !ok {
		return nil
	}
	return h.department(c, departmentID, required)
}

func (h *BoardHandler) workspaceBoard(c *gin.Context, required model.Role) *board.Engine {
	workspaceID, ok := parseUUIDParam(c, "id", "workspace")
	if !ok {
		return nil
	}
	return h.workspace(c, workspaceID, required)
}

// GetDepartmentBoard godoc
// @Summary      Department board
// @Description  Lanes of one department in position order, each with its tasks
// @Tags         Boards
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  BoardResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /departments/{id}/board [get]
func (h *BoardHandler) GetDepartmentBoard(c *gin.Context) {
	if e := h.departmentBoard(c, model.RoleViewer); e != nil {
		c.JSON(http.StatusOK, newBoardResponse(e.Board()))
	}
}

// GetWorkspaceBoard godoc
// @Summary      Workspace board
// @Description  Lanes of every department merged by label
// @Tags         Boards
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  BoardResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /workspaces/{id}/board [get]
func (h *BoardHandler) GetWorkspaceBoard(c *gin.Context) {
	if e := h.workspaceBoard(c, model.RoleViewer); e != nil {
		c.JSON(http.StatusOK, newBoardResponse(e.Board()))
	}
}

// DepartmentEvents godoc
// @Summary      Department board stream
// @Description  Server-sent "board" events carrying a full snapshot after every change
// @Tags         Boards
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "Department ID"
// @Router       /departments/{id}/board/events [get]
func (h *BoardHandler) DepartmentEvents(c *gin.Context) {
	if e := h.departmentBoard(c, model.RoleViewer); e != nil {
		h.stream(c, e)
	}
}

// WorkspaceEvents godoc
// @Summary      Workspace board stream
// @Tags         Boards
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "Workspace ID"
// @Router       /workspaces/{id}/board/events [get]
func (h *BoardHandler) WorkspaceEvents(c *gin.Context) {
	if e := h.workspaceBoard(c, model.RoleViewer); e != nil {
		h.stream(c, e)
	}
}

func (h *BoardHandler) stream(c *gin.Context, e *board.Engine) {
	changed := make(chan struct{}, 1)
	cancel := e.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("board", newBoardResponse(e.Board()))
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-changed:
			c.SSEvent("board", newBoardResponse(e.Board()))
			return true
		}
	})
}

// MoveDepartmentTask godoc
// @Summary      Move a task
// @Description  Applies the move immediately and persists it in the background
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true  "Department ID"
// @Param        task_id  path  string           true  "Task ID"
// @Param        move     body  MoveTaskRequest  true  "Source and destination"
// @Success      202  {object}  MoveResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /departments/{id}/board/tasks/{task_id}/move [post]
func (h *BoardHandler) MoveDepartmentTask(c *gin.Context) {
	if e := h.departmentBoard(c, model.RoleEditor); e != nil {
		h.move(c, e)
	}
}

// MoveWorkspaceTask godoc
// @Summary      Move a task on a grouped board
// @Description  dest_lane is a label; the status is picked from the task's own department first
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true  "Workspace ID"
// @Param        task_id  path  string           true  "Task ID"
// @Param        move     body  MoveTaskRequest  true  "Source and destination"
// @Success      202  {object}  MoveResponse
// @Router       /workspaces/{id}/board/tasks/{task_id}/move [post]
func (h *BoardHandler) MoveWorkspaceTask(c *gin.Context) {
	if e := h.workspaceBoard(c, model.RoleEditor); e != nil {
		h.move(c, e)
	}
}

func (h *BoardHandler) move(c *gin.Context, e *board.Engine) {
	taskID, ok := parseUUIDParam(c, "task_id", "task")
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	m, err := e.MoveTask(c.Request.Context(), board.MoveRequest{
		TaskID:      taskID,
		SourceLane:  req.SourceLane,
		DestLane:    req.DestLane,
		SourceIndex: req.SourceIndex,
		DestIndex:   req.DestIndex,
	})
	if err != nil {
		writeBoardError(c, err, "Failed to move task")
		return
	}

	c.JSON(http.StatusAccepted, MoveResponse{
		State: m.State().String(),
		Board: newBoardResponse(e.Board()),
	})
}
