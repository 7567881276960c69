package handlers

import (
	"errors"
	"net/http"

	"qpgen/services"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP statuses and emits
// the shared {"error": ...} envelope with a machine-readable kind.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		authErr       *services.AuthorizationError
		poolErr       *services.InsufficientPoolError
		renderErr     *services.RenderError
		persistErr    *services.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
	case errors.As(err, &poolErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "insufficient_pool", "filters": poolErr.Filters})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "kind": "authorization"})
	case errors.As(err, &renderErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "render"})
	case errors.As(err, &persistErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "persistence"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// currentUser pulls the authenticated user's id off the context.
func currentUser(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return value.(uint), true
}

func isAdmin(c *gin.Context) bool {
	value, exists := c.Get("user_type")
	return exists && value.(string) == "Admin"
}
