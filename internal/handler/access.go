package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workboard/internal/board"
	"workboard/internal/middleware"
	"workboard/internal/model"
)

// Access decides whether a user may use the boards of the given departments.
type Access interface {
	CheckAccess(ctx context.Context, departmentIDs []uuid.UUID, userID uuid.UUID, required model.Role) (bool, error)
}

// currentUser reads the authenticated user set by the JWT middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	// Получаем ID текущего пользователя из контекста
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	authenticatedUserID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return authenticatedUserID, true
}

// resolver turns route parameters into loaded board engines after checking
// the caller's role. Every method writes the error response itself and
// returns nil on failure.
type resolver struct {
	boards      Boards
	departments DepartmentRepository
	access      Access
	log         logrus.FieldLogger
}

func (r resolver) allowed(c *gin.Context, departmentIDs []uuid.UUID, required model.Role) bool {
	userID, ok := currentUser(c)
	if !ok {
		return false
	}

	granted, err := r.access.CheckAccess(c.Request.Context(), departmentIDs, userID, required)
	if err != nil {
		r.log.WithError(err).WithField("user", userID).Error("failed to check access")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}
	if !granted {
		msg := "You don't have access to this board"
		if required == model.RoleEditor {
			msg = "You don't have permission to modify this board"
		}
		c.JSON(http.StatusForbidden, gin.H{"error": msg})
		return false
	}
	return true
}

// department resolves the ungrouped board of one department.
func (r resolver) department(c *gin.Context, departmentID uuid.UUID, required model.Role) *board.Engine {
	department, err := r.departments.GetByID(c.Request.Context(), departmentID)
	if err != nil {
		r.log.WithError(err).WithField("department", departmentID).Error("failed to look up department")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve department"})
		return nil
	}
	if department == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return nil
	}
	if !r.allowed(c, []uuid.UUID{departmentID}, required) {
		return nil
	}

	e, err := r.boards.Get(c.Request.Context(), []uuid.UUID{departmentID}, false)
	if err != nil {
		r.log.WithError(err).WithField("department", departmentID).Error("failed to load board")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return nil
	}
	return e
}

// workspace resolves the grouped board spanning every department of a
// workspace, in department creation order. The caller needs the role in all
// of them.
func (r resolver) workspace(c *gin.Context, workspaceID uuid.UUID, required model.Role) *board.Engine {
	departments, err := r.departments.GetByWorkspaceID(c.Request.Context(), workspaceID)
	if err != nil {
		r.log.WithError(err).WithField("workspace", workspaceID).Error("failed to list departments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve departments"})
		return nil
	}
	if len(departments) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace has no departments"})
		return nil
	}

	scopes := make([]uuid.UUID, len(departments))
	for i, d := range departments {
		scopes[i] = d.ID
	}
	if !r.allowed(c, scopes, required) {
		return nil
	}

	e, err := r.boards.Get(c.Request.Context(), scopes, true)
	if err != nil {
		r.log.WithError(err).WithField("workspace", workspaceID).Error("failed to load board")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load board"})
		return nil
	}
	return e
}
