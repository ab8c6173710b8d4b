package api

import (
	"errors"
	"net/http"

	"storyboard-server/models"

	"github.com/gin-gonic/gin"
)

// writeError maps the error taxonomy onto status codes so clients can tell
// retryable backend failures from input problems.
func writeError(c *gin.Context, err error) {
	var (
		validationErr   *models.ValidationError
		preconditionErr *models.PreconditionError
		backendErr      *models.BackendError
	)

	switch {
	case errors.Is(err, models.ErrProjectNotFound), errors.Is(err, models.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": "validation"})
	case errors.As(err, &preconditionErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "precondition"})
	case errors.As(err, &backendErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "backend"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "internal"})
	}
}

func bindingError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": "validation"})
}
