package handler

import (
	"net/http"

	"jigtrack/internal/middleware"
	"jigtrack/internal/repository"
	"jigtrack/internal/service"
	"jigtrack/pkg/pagination"
	"jigtrack/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/jig-orders")
	{
		orders.GET("", middleware.RequirePermission("jig_order.read"), h.ListOrders)
		orders.POST("", middleware.RequirePermission("jig_order.manage"), h.CreateOrder)
		orders.GET("/:id", middleware.RequirePermission("jig_order.read"), h.GetOrder)
		orders.PUT("/:id", middleware.RequirePermission("jig_order.manage"), h.UpdateOrder)
		orders.DELETE("/:id", middleware.RequirePermission("jig_order.manage"), h.DeleteOrder)

		orders.POST("/:id/submit", middleware.RequirePermission("jig_order.manage"), h.SubmitOrder)
		orders.POST("/:id/approve", middleware.RequirePermission("jig_order.approve"), h.ApproveOrder)
		orders.POST("/:id/reject", middleware.RequirePermission("jig_order.approve"), h.RejectOrder)
		orders.POST("/:id/prepare", middleware.RequirePermission("jig_order.prepare"), h.PrepareOrder)
		orders.POST("/:id/notify", middleware.RequirePermission("jig_order.prepare"), h.NotifyOrder)
		orders.POST("/:id/pickup", middleware.RequirePermission("jig_order.manage"), h.PickupOrder)
		orders.POST("/:id/cancel", middleware.RequirePermission("jig_order.manage"), h.CancelOrder)
	}
}

// ListOrders returns paginated jig orders
// @Summary      List jig orders
// @Description  Retrieves a paginated list of jig orders, optionally filtered by status and requester
// @Tags         jig-orders
// @Security     BearerAuth
// @Produce      json
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Param        status        query     string  false  "Filter by order status"
// @Param        requested_by  query     string  false  "Filter by requester ID"
// @Success      200  {object}  response.Response{data=response.PagedData}
// @Failure      500  {object}  response.Response
// @Router       /api/jig-orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	requestedBy, ok := pagination.QueryUUID(c, "requested_by")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid requested_by query parameter"))
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), repository.OrderFilter{
		Status:      c.Query("status"),
		RequestedBy: requestedBy,
		Page:        params.Page,
		Limit:       params.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, orders, total, params.Page, params.Limit))
}

// CreateOrder creates a new draft jig order
// @Summary      Create jig order
// @Description  Creates a draft jig order with at least one requested line
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.JigOrder}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/jig-orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	caller, ok := callerID(c)
	if !ok {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), caller, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrder returns one jig order with its lines
// @Summary      Get jig order
// @Tags         jig-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.JigOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/jig-orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder edits a draft or submitted order
// @Summary      Update jig order
// @Description  Merges header fields; replacing lines is only allowed while the order is a draft
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=model.JigOrder}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/jig-orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	caller, ok := callerID(c)
	if !ok {
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder removes a draft or rejected order
// @Summary      Delete jig order
// @Tags         jig-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/jig-orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	caller, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.orderService.Remove(c.Request.Context(), caller, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Order deleted successfully"))
}

// SubmitOrder sends a draft order for approval
// @Summary      Submit jig order
// @Tags         jig-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.JigOrder}
// @Failure      422  {object}  response.Response
// @Router       /api/jig-orders/{id}/submit [post]
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Submit(c.Request.Context(), caller, id)
	})
}

type decisionRequest struct {
	Comments string `json:"comments"`
	Reason   string `json:"reason"`
}

// ApproveOrder approves a submitted order
// @Summary      Approve jig order
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string           true   "Order ID"
// @Param        payload  body      decisionRequest  false  "Approval comments"
// @Success      200      {object}  response.Response{data=model.JigOrder}
// @Failure      422      {object}  response.Response
// @Router       /api/jig-orders/{id}/approve [post]
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	var req decisionRequest
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Approve(c.Request.Context(), caller, id, req.Comments)
	})
}

// RejectOrder rejects a submitted order
// @Summary      Reject jig order
// @Description  Rejects a submitted order; a reason is required
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Order ID"
// @Param        payload  body      decisionRequest  true  "Rejection reason"
// @Success      200      {object}  response.Response{data=model.JigOrder}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/jig-orders/{id}/reject [post]
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	var req decisionRequest
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Reject(c.Request.Context(), caller, id, req.Reason)
	})
}

// PrepareOrder records prepared lines on an approved order
// @Summary      Prepare jig order lines
// @Description  Marks lines prepared and stages their units; the order becomes ready once every line is prepared
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Order ID"
// @Param        payload  body      service.PrepareOrderRequest  true  "Prepared Lines Payload"
// @Success      200      {object}  response.Response{data=model.JigOrder}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/jig-orders/{id}/prepare [post]
func (h *OrderHandler) PrepareOrder(c *gin.Context) {
	var req service.PrepareOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Prepare(c.Request.Context(), caller, id, req)
	})
}

// NotifyOrder marks a ready order as requester-notified
// @Summary      Notify requester
// @Tags         jig-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.JigOrder}
// @Failure      422  {object}  response.Response
// @Router       /api/jig-orders/{id}/notify [post]
func (h *OrderHandler) NotifyOrder(c *gin.Context) {
	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Notify(c.Request.Context(), caller, id)
	})
}

// PickupOrder completes a notified order and relocates its units
// @Summary      Pick up jig order
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true   "Order ID"
// @Param        payload  body      service.PickupOrderRequest  false  "Pickup Payload"
// @Success      200      {object}  response.Response{data=model.JigOrder}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/jig-orders/{id}/pickup [post]
func (h *OrderHandler) PickupOrder(c *gin.Context) {
	var req service.PickupOrderRequest
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Pickup(c.Request.Context(), caller, id, req)
	})
}

// CancelOrder cancels an in-flight order
// @Summary      Cancel jig order
// @Description  Cancels an order before pickup; units already staged for it are returned to storage
// @Tags         jig-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Order ID"
// @Param        payload  body      decisionRequest  true  "Cancellation reason"
// @Success      200      {object}  response.Response{data=model.JigOrder}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/jig-orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req decisionRequest
	_ = c.ShouldBindJSON(&req)

	h.transition(c, func(caller, id uuid.UUID) (interface{}, error) {
		return h.orderService.Cancel(c.Request.Context(), caller, id, req.Reason)
	})
}

// transition factors the shared plumbing of the lifecycle endpoints:
// validate the path ID and the caller identity, run the operation, map
// the error kind onto a status code.
func (h *OrderHandler) transition(c *gin.Context, op func(caller, id uuid.UUID) (interface{}, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	caller, ok := callerID(c)
	if !ok {
		return
	}

	order, err := op(caller, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
