package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workboard/internal/model"
	"workboard/internal/repository"
)

type MemberRepository interface {
	AddMember(ctx context.Context, departmentID, userID uuid.UUID, role model.Role) error
	RemoveMember(ctx context.Context, departmentID, userID uuid.UUID) error
	ListMembers(ctx context.Context, departmentID uuid.UUID) ([]model.DepartmentMember, error)
}

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type WorkspaceLookup interface {
	GetWorkspace(ctx context.Context, id uuid.UUID) (*model.Workspace, error)
}

type MemberHandler struct {
	departments DepartmentRepository
	workspaces  WorkspaceLookup
	members     MemberRepository
	users       UserLookup
	access      Access
	log         logrus.FieldLogger
}

func NewMemberHandler(
	departments DepartmentRepository,
	workspaces WorkspaceLookup,
	members MemberRepository,
	users UserLookup,
	access Access,
	log logrus.FieldLogger,
) *MemberHandler {
	return &MemberHandler{
		departments: departments,
		workspaces:  workspaces,
		members:     members,
		users:       users,
		access:      access,
		log:         log,
	}
}

// AddMemberRequest представляет запрос на предоставление доступа к отделу
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=viewer editor"`
}

// MemberResponse представляет информацию о пользователе с доступом к отделу
type MemberResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsOwner bool   `json:"is_owner"`
}

// department loads the :id department together with its workspace.
func (h *MemberHandler) department(c *gin.Context) (*model.Department, *model.Workspace, bool) {
	departmentID, ok := parseUUIDParam(c, "id", "department")
	if !ok {
		return nil, nil, false
	}

	department, err := h.departments.GetByID(c.Request.Context(), departmentID)
	if err != nil {
		h.log.WithError(err).WithField("department", departmentID).Error("failed to look up department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve department"})
		return nil, nil, false
	}
	if department == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return nil, nil, false
	}

	workspace, err := h.workspaces.GetWorkspace(c.Request.Context(), department.WorkspaceID)
	if err != nil {
		h.log.WithError(err).WithField("workspace", department.WorkspaceID).Error("failed to look up workspace")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		return nil, nil, false
	}
	return department, workspace, true
}

// AddMember godoc
// @Summary      Grant department access
// @Description  Adds a user by email or changes their role. Only the workspace owner can do this.
// @Tags         Members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string            true  "Department ID"
// @Param        member  body  AddMemberRequest  true  "Email and role"
// @Success      200  {object}  MemberResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /departments/{id}/members [post]
func (h *MemberHandler) AddMember(c *gin.Context) {
	authenticatedUserID, ok := currentUser(c)
	if !ok {
		return
	}

	department, workspace, ok := h.department(c)
	if !ok {
		return
	}

	// Проверяем, является ли пользователь владельцем рабочего пространства
	if workspace.OwnerID != authenticatedUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the workspace owner can manage members"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Находим пользователя по email
	targetUser, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if targetUser == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Владелец и так имеет полный доступ
	if targetUser.ID == authenticatedUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself as a member"})
		return
	}

	if err := h.members.AddMember(c.Request.Context(), department.ID, targetUser.ID, model.Role(req.Role)); err != nil {
		h.log.WithError(err).WithField("department", department.ID).Error("failed to add member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	c.JSON(http.StatusOK, MemberResponse{
		UserID: targetUser.ID.String(),
		Email:  targetUser.Email,
		Name:   targetUser.Name,
		Role:   req.Role,
	})
}

// RemoveMember godoc
// @Summary      Revoke department access
// @Tags         Members
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string  true  "Department ID"
// @Param        user_id  path  string  true  "User ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /departments/{id}/members/{user_id} [delete]
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	authenticatedUserID, ok := currentUser(c)
	if !ok {
		return
	}

	targetUserID, ok := parseUUIDParam(c, "user_id", "user")
	if !ok {
		return
	}

	department, workspace, ok := h.department(c)
	if !ok {
		return
	}

	if workspace.OwnerID != authenticatedUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the workspace owner can manage members"})
		return
	}

	if err := h.members.RemoveMember(c.Request.Context(), department.ID, targetUserID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		h.log.WithError(err).WithField("department", department.ID).Error("failed to remove member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// ListMembers godoc
// @Summary      Department members
// @Description  The workspace owner first, then members in the order they were added
// @Tags         Members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Department ID"
// @Success      200  {array}   MemberResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /departments/{id}/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	authenticatedUserID, ok := currentUser(c)
	if !ok {
		return
	}

	department, workspace, ok := h.department(c)
	if !ok {
		return
	}

	// Проверяем права доступа
	hasAccess, err := h.access.CheckAccess(c.Request.Context(), []uuid.UUID{department.ID}, authenticatedUserID, model.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this board"})
		return
	}

	members, err := h.members.ListMembers(c.Request.Context(), department.ID)
	if err != nil {
		h.log.WithError(err).WithField("department", department.ID).Error("failed to list members")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, 0, len(members)+1)
	response = append(response, MemberResponse{
		UserID:  workspace.OwnerID.String(),
		Role:    "owner",
		IsOwner: true,
	})
	for _, m := range members {
		response = append(response, MemberResponse{
			UserID: m.UserID.String(),
			Email:  m.User.Email,
			Name:   m.User.Name,
			Role:   string(m.Role),
		})
	}

	c.JSON(http.StatusOK, response)
}
