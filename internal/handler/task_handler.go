package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workboard/internal/model"
	"workboard/internal/repository"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskHandler struct {
	resolver
	tasks TaskRepository
}

func NewTaskHandler(boards Boards, departments DepartmentRepository, access Access, tasks TaskRepository, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		resolver: resolver{boards: boards, departments: departments, access: access, log: log},
		tasks:    tasks,
	}
}

// TaskRequest представляет запрос на создание задачи
type TaskRequest struct {
	Title      string     `json:"title" binding:"required"`
	StatusID   *string    `json:"status_id"`
	Priority   string     `json:"priority"`
	AssignedTo *string    `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
}

// Create godoc
// @Summary      Create a task
// @Description  status_id may be omitted; such tasks show up in the unassigned lane
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string       true  "Department ID"
// @Param        task  body  TaskRequest  true  "Task"
// @Success      201  {object}  TaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /departments/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	departmentID, ok := parseUUIDParam(c, "id", "department")
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task := &model.Task{
		ScopeID:  departmentID,
		Title:    req.Title,
		Priority: req.Priority,
		DueDate:  req.DueDate,
	}
	var err error
	if task.StatusID, err = parseOptionalUUID(req.StatusID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status ID format"})
		return
	}
	if task.AssignedTo, err = parseOptionalUUID(req.AssignedTo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	e := h.department(c, departmentID, model.RoleEditor)
	if e == nil {
		return
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		h.log.WithError(err).WithField("department", departmentID).Error("failed to create task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	if err := e.Reload(c.Request.Context()); err != nil {
		h.log.WithError(err).WithField("department", departmentID).Warn("reload after task create failed")
	}

	c.JSON(http.StatusCreated, newTaskResponse(*task))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Task ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	e := h.department(c, task.ScopeID, model.RoleEditor)
	if e == nil {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		h.log.WithError(err).WithField("task", taskID).Error("failed to delete task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}
	if err := e.Reload(c.Request.Context()); err != nil {
		h.log.WithError(err).WithField("task", taskID).Warn("reload after task delete failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
