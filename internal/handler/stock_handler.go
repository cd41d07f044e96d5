package handler

import (
	"net/http"

	"jigtrack/internal/middleware"
	"jigtrack/internal/service"
	"jigtrack/pkg/pagination"
	"jigtrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.GET("/ledger/:detailId", middleware.RequirePermission("stock.read"), h.DetailLedger)
		stock.POST("/adjustments", middleware.RequirePermission("stock.adjust"), h.CreateAdjustment)
		stock.GET("/jigs/:jigId", middleware.RequirePermission("stock.read"), h.JigStock)
		stock.POST("/recompute", middleware.RequirePermission("stock.adjust"), h.Recompute)
	}
}

// DetailLedger returns the movement history of one unit
// @Summary      Unit movement ledger
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        detailId  query     string  true   "Jig Detail ID"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=response.PagedData}
// @Failure      404  {object}  response.Response
// @Router       /api/stock/ledger/{detailId} [get]
func (h *StockHandler) DetailLedger(c *gin.Context) {
	id, ok := pathUUID(c, "detailId")
	if !ok {
		return
	}
	params := pagination.Parse(c)

	entries, total, err := h.stockService.DetailLedger(c.Request.Context(), id, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, entries, total, params.Page, params.Limit))
}

// CreateAdjustment records a manual stock correction
// @Summary      Manual ledger adjustment
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustmentRequest  true  "Adjustment Payload"
// @Success      201      {object}  response.Response{data=model.LedgerEntry}
// @Failure      400      {object}  response.Response
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) CreateAdjustment(c *gin.Context) {
	var req service.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.stockService.AppendAdjustment(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// JigStock returns the derived available count for one jig
// @Summary      Jig availability
// @Description  Counts units of the jig currently sitting in storage
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        jigId  path      string  true  "Jig ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/stock/jigs/{jigId} [get]
func (h *StockHandler) JigStock(c *gin.Context) {
	id, ok := pathUUID(c, "jigId")
	if !ok {
		return
	}

	available, err := h.stockService.JigStock(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"jig_id":    id,
		"available": available,
	}))
}

// Recompute refreshes every jig's cached availability
// @Summary      Recompute cached availability
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/stock/recompute [post]
func (h *StockHandler) Recompute(c *gin.Context) {
	updated, err := h.stockService.RecomputeAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"updated": updated,
	}))
}
