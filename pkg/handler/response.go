package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"payment_reconciler/pkg/service"
)

type Error struct {
	Message string `json:"error"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	logrus.WithFields(logrus.Fields{
		"status": statusCode,
		"path":   c.FullPath(),
	}).Error(message)
	c.AbortWithStatusJSON(statusCode, Error{Message: message})
}

// errorResponse maps a service error to its status. Upstream and store
// failures get a generic message, the detail only goes to the log.
func errorResponse(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		newErrorResponse(c, http.StatusBadRequest, verr.Message)
		return
	}

	switch errors.Cause(err) {
	case service.ErrAlreadyClaimed:
		newErrorResponse(c, http.StatusConflict, service.ErrAlreadyClaimed.Error())
	case service.ErrForbidden:
		newErrorResponse(c, http.StatusForbidden, service.ErrForbidden.Error())
	case service.ErrNotFound:
		newErrorResponse(c, http.StatusNotFound, service.ErrNotFound.Error())
	case service.ErrUpstream:
		logrus.Errorf("%s: %v", c.FullPath(), err)
		newErrorResponse(c, http.StatusInternalServerError, "payment provider unavailable")
	default:
		logrus.Errorf("%s: %v", c.FullPath(), err)
		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

func wrapOkJSON(c *gin.Context, response map[string]interface{}) {
	c.JSON(http.StatusOK, response)
}
