package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundguard/fundguard/src/api/store"
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrNoCommunity):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotLoggedIn), errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrRoleNotAllowed), errors.Is(err, store.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidCode):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateAccount),
		errors.Is(err, store.ErrAlreadyMember),
		errors.Is(err, store.ErrAlreadyVoted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"err": err.Error()})
}
