package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placekeeper/placekeeper/internal/common"
)

// Application error codes carried in response bodies alongside the HTTP
// status. Stable across releases; clients key on these, not on message text.
const (
	codeValidation   = 1
	codeUnauthorized = 2
	codeForbidden    = 3
	codeNotFound     = 4
	codeConflict     = 5
	codeSamePassword = 6
	codeInternal     = 7
	codeInvalidToken = 8
)

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// abortWithError translates a service error into the HTTP response.
// Message text is fixed per error kind so no internal detail leaks out.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			errorResponse{Message: "invalid inputs passed, please check your data", Code: codeValidation})
	case errors.Is(err, common.ErrorNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound,
			errorResponse{Message: "could not find the requested resource", Code: codeNotFound})
	case errors.Is(err, common.ErrorUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			errorResponse{Message: "authentication required", Code: codeUnauthorized})
	case errors.Is(err, common.ErrorForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden,
			errorResponse{Message: "you are not allowed to modify this resource", Code: codeForbidden})
	case errors.Is(err, common.ErrorConflict):
		c.AbortWithStatusJSON(http.StatusConflict,
			errorResponse{Message: "resource already exists", Code: codeConflict})
	case errors.Is(err, common.ErrorSamePassword):
		c.AbortWithStatusJSON(http.StatusForbidden,
			errorResponse{Message: "new password must differ from the old password", Code: codeSamePassword})
	case errors.Is(err, common.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusForbidden,
			errorResponse{Message: "reset token is invalid or has expired", Code: codeInvalidToken})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			errorResponse{Message: "something went wrong, please try again later", Code: codeInternal})
	}
}
