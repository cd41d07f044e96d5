package handler

import (
	"net/http"

	"jigtrack/internal/apperr"
	"jigtrack/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeError maps a service error onto the HTTP status its kind implies.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// callerID reads the authenticated user's ID out of the Gin context.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("userID")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity in token"))
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses the :id path parameter.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+" path parameter"))
		return uuid.Nil, false
	}
	return id, true
}
