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

type WorkspaceRepository interface {
	CreateWorkspace(ctx context.Context, workspace *model.Workspace) error
	GetWorkspace(ctx context.Context, id uuid.UUID) (*model.Workspace, error)
	Create(ctx context.Context, department *model.Department) error
	GetByWorkspaceID(ctx context.Context, workspaceID uuid.UUID) ([]model.Department, error)
}

// BoardInvalidator drops loaded boards that span a department.
type BoardInvalidator interface {
	Invalidate(scopeID uuid.UUID)
}

type WorkspaceHandler struct {
	repo   WorkspaceRepository
	boards BoardInvalidator
	log    logrus.FieldLogger
}

func NewWorkspaceHandler(repo WorkspaceRepository, boards BoardInvalidator, log logrus.FieldLogger) *WorkspaceHandler {
	return &WorkspaceHandler{repo: repo, boards: boards, log: log}
}

type CreateWorkspaceRequest struct {
	Name     string `json:"name" binding:"required"`
	ClientID string `json:"client_id" binding:"required,uuid"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

type WorkspaceResponse struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type DepartmentResponse struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	CreatedAt   string `json:"created_at"`
}

func newDepartmentResponse(d model.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID.String(),
		WorkspaceID: d.WorkspaceID.String(),
		Name:        d.Name,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
}

// CreateWorkspace godoc
// @Summary      Create a workspace
// @Description  The caller becomes the owner and can edit every department in it
// @Tags         Workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        workspace  body  CreateWorkspaceRequest  true  "Workspace"
// @Success      201  {object}  WorkspaceResponse
// @Failure      400  {object}  map[string]string
// @Router       /workspaces [post]
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	authenticatedUserID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	workspace := &model.Workspace{
		ClientID: uuid.MustParse(req.ClientID),
		OwnerID:  authenticatedUserID,
		Name:     req.Name,
	}
	if err := h.repo.CreateWorkspace(c.Request.Context(), workspace); err != nil {
		h.log.WithError(err).Error("failed to create workspace")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace"})
		return
	}

	c.JSON(http.StatusCreated, WorkspaceResponse{
		ID:        workspace.ID.String(),
		ClientID:  workspace.ClientID.String(),
		OwnerID:   workspace.OwnerID.String(),
		Name:      workspace.Name,
		CreatedAt: workspace.CreatedAt.Format(time.RFC3339),
	})
}

// ownedWorkspace loads the :id workspace and checks that the caller owns it.
func (h *WorkspaceHandler) ownedWorkspace(c *gin.Context) (*model.Workspace, bool) {
	authenticatedUserID, ok := currentUser(c)
	if !ok {
		return nil, false
	}

	workspaceID, ok := parseUUIDParam(c, "id", "workspace")
	if !ok {
		return nil, false
	}

	workspace, err := h.repo.GetWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		if errors.Is(err, repository.ErrWorkspaceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
			return nil, false
		}
		h.log.WithError(err).WithField("workspace", workspaceID).Error("failed to look up workspace")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		return nil, false
	}

	if workspace.OwnerID != authenticatedUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the workspace owner can manage departments"})
		return nil, false
	}
	return workspace, true
}

// CreateDepartment godoc
// @Summary      Create a department
// @Tags         Workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id          path  string                   true  "Workspace ID"
// @Param        department  body  CreateDepartmentRequest  true  "Department"
// @Success      201  {object}  DepartmentResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /workspaces/{id}/departments [post]
func (h *WorkspaceHandler) CreateDepartment(c *gin.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	department := &model.Department{WorkspaceID: workspace.ID, Name: req.Name}
	if err := h.repo.Create(c.Request.Context(), department); err != nil {
		h.log.WithError(err).WithField("workspace", workspace.ID).Error("failed to create department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create department"})
		return
	}

	// The workspace board now spans one more department; drop the old one.
	siblings, err := h.repo.GetByWorkspaceID(c.Request.Context(), workspace.ID)
	if err != nil {
		h.log.WithError(err).WithField("workspace", workspace.ID).Warn("failed to list departments for invalidation")
	}
	for _, d := range siblings {
		if d.ID != department.ID {
			h.boards.Invalidate(d.ID)
		}
	}

	c.JSON(http.StatusCreated, newDepartmentResponse(*department))
}

// ListDepartments godoc
// @Summary      Workspace departments
// @Description  In creation order, which is also the lane merge order of the workspace board
// @Tags         Workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Workspace ID"
// @Success      200  {array}   DepartmentResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /workspaces/{id}/departments [get]
func (h *WorkspaceHandler) ListDepartments(c *gin.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	departments, err := h.repo.GetByWorkspaceID(c.Request.Context(), workspace.ID)
	if err != nil {
		h.log.WithError(err).WithField("workspace", workspace.ID).Error("failed to list departments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve departments"})
		return
	}

	response := make([]DepartmentResponse, len(departments))
	for i, d := range departments {
		response[i] = newDepartmentResponse(d)
	}
	c.JSON(http.StatusOK, response)
}
