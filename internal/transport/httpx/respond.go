package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/nosmoke/internal/domain"
)

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// fail maps a service error onto the HTTP taxonomy. Unexpected errors are
// attached to the context for the request logger and answered generically.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		abort(c, status, "internal server error")
		return
	}
	abort(c, status, message(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// message strips the sentinel prefix so "validation failed: plan_id is required"
// reads as "plan_id is required".
func message(err error) string {
	msg := err.Error()
	for _, s := range []error{domain.ErrValidation, domain.ErrNotFound, domain.ErrConflict, domain.ErrForbidden} {
		if rest, found := strings.CutPrefix(msg, s.Error()+": "); found {
			return rest
		}
	}
	return msg
}

// bindFail answers a malformed body.
func bindFail(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
}
