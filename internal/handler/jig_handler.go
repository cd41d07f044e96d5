package handler

import (
	"net/http"

	"jigtrack/internal/middleware"
	"jigtrack/internal/service"
	"jigtrack/pkg/pagination"
	"jigtrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type JigHandler struct {
	jigService service.JigService
}

func NewJigHandler(jigService service.JigService) *JigHandler {
	return &JigHandler{jigService: jigService}
}

func (h *JigHandler) RegisterRoutes(router *gin.RouterGroup) {
	jigs := router.Group("/api/jigs")
	{
		jigs.GET("", middleware.RequirePermission("jig.read"), h.ListJigs)
		jigs.POST("", middleware.RequirePermission("jig.manage"), h.CreateJig)
		jigs.GET("/:id", middleware.RequirePermission("jig.read"), h.GetJig)
	}

	details := router.Group("/api/jig-details")
	{
		details.GET("", middleware.RequirePermission("jig.read"), h.ListDetails)
		details.POST("", middleware.RequirePermission("jig.manage"), h.CreateDetail)
		details.GET("/:id", middleware.RequirePermission("jig.read"), h.GetDetail)
		details.POST("/batch-status", middleware.RequirePermission("jig.manage"), h.UpdateStatusBatch)
		details.POST("/:id/capture-default", middleware.RequirePermission("jig.manage"), h.CaptureDefault)
		details.POST("/:id/restore-default", middleware.RequirePermission("jig.manage"), h.RestoreDefault)
	}
}

// ListJigs returns paginated jig master records
// @Summary      List jigs
// @Tags         jigs
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by code or name"
// @Success      200  {object}  response.Response{data=response.PagedData}
// @Failure      500  {object}  response.Response
// @Router       /api/jigs [get]
func (h *JigHandler) ListJigs(c *gin.Context) {
	params := pagination.Parse(c)

	jigs, total, err := h.jigService.ListJigs(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, jigs, total, params.Page, params.Limit))
}

// CreateJig registers a new jig master record
// @Summary      Create jig
// @Tags         jigs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateJigRequest  true  "Create Jig Payload"
// @Success      201      {object}  response.Response{data=model.Jig}
// @Failure      400      {object}  response.Response
// @Router       /api/jigs [post]
func (h *JigHandler) CreateJig(c *gin.Context) {
	var req service.CreateJigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	jig, err := h.jigService.CreateJig(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, jig))
}

// GetJig returns one jig master record
// @Summary      Get jig
// @Tags         jigs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Jig ID"
// @Success      200  {object}  response.Response{data=model.Jig}
// @Failure      404  {object}  response.Response
// @Router       /api/jigs/{id} [get]
func (h *JigHandler) GetJig(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	jig, err := h.jigService.GetJig(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, jig))
}

// ListDetails returns paginated tracked units
// @Summary      List jig details
// @Tags         jig-details
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by unit status"
// @Success      200  {object}  response.Response{data=response.PagedData}
// @Failure      500  {object}  response.Response
// @Router       /api/jig-details [get]
func (h *JigHandler) ListDetails(c *gin.Context) {
	params := pagination.Parse(c)

	details, total, err := h.jigService.ListDetails(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, details, total, params.Page, params.Limit))
}

// CreateDetail registers a new tracked unit
// @Summary      Create jig detail
// @Description  Registers an individually tracked unit; an initial ledger entry is recorded
// @Tags         jig-details
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateJigDetailRequest  true  "Create Jig Detail Payload"
// @Success      201      {object}  response.Response{data=model.JigDetail}
// @Failure      400      {object}  response.Response
// @Router       /api/jig-details [post]
func (h *JigHandler) CreateDetail(c *gin.Context) {
	var req service.CreateJigDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.jigService.CreateDetail(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// GetDetail returns one tracked unit
// @Summary      Get jig detail
// @Tags         jig-details
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Jig Detail ID"
// @Success      200  {object}  response.Response{data=model.JigDetail}
// @Failure      404  {object}  response.Response
// @Router       /api/jig-details/{id} [get]
func (h *JigHandler) GetDetail(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.jigService.GetDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// UpdateStatusBatch applies one status to many units
// @Summary      Batch status update
// @Description  Applies a status (and optional placement) to many units; each unit succeeds or fails on its own
// @Tags         jig-details
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BatchStatusRequest  true  "Batch Status Payload"
// @Success      200      {object}  response.Response{data=service.BatchStatusResult}
// @Failure      400      {object}  response.Response
// @Router       /api/jig-details/batch-status [post]
func (h *JigHandler) UpdateStatusBatch(c *gin.Context) {
	var req service.BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.jigService.UpdateStatusBatch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CaptureDefault snapshots a unit's current placement as its default
// @Summary      Capture default placement
// @Tags         jig-details
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Jig Detail ID"
// @Success      200  {object}  response.Response{data=model.JigDetail}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/jig-details/{id}/capture-default [post]
func (h *JigHandler) CaptureDefault(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.jigService.CaptureDefaultPlacement(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// RestoreDefault moves a unit back to its default placement
// @Summary      Restore default placement
// @Description  Restores the snapshot if it agrees with the unit's current status; otherwise leaves the unit untouched
// @Tags         jig-details
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Jig Detail ID"
// @Success      200  {object}  response.Response{data=model.JigDetail}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/jig-details/{id}/restore-default [post]
func (h *JigHandler) RestoreDefault(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.jigService.RestoreDefaultPlacement(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}
