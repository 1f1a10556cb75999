package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/interface/middleware"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
	"github.com/trade-ham/marketplace-api/pkg/helpers"
	"github.com/trade-ham/marketplace-api/pkg/response"
)

// fail logs unexpected errors with the request id and writes the mapped envelope.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	if apperror.From(err).Name == apperror.CodeInternal.Name {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
	}
	response.Fail(c, err)
}

// pathID reads a positive int64 route parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

// callerID returns the authenticated user id, writing a 401 when absent.
func callerID(c *gin.Context) (int64, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.UserID == 0 {
		response.Fail(c, apperror.ErrUnauthorized)
		return 0, false
	}
	return p.UserID, true
}
