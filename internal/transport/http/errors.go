package http

import (
	"errors"
	"net/http"

	"truthquest-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto status codes. Unknown errors are
// recorded on the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInviteExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite has expired", "code": "expired"})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
