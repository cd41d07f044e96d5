package handler

import (
	"net/http"

	"jigtrack/internal/approval"
	"jigtrack/internal/middleware"
	"jigtrack/pkg/pagination"
	"jigtrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService *approval.Service
}

func NewApprovalHandler(approvalService *approval.Service) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals")
	{
		approvals.GET("", middleware.RequirePermission("approval.read"), h.ListCases)
		approvals.POST("/:id/approve", middleware.RequirePermission("approval.decide"), h.ApproveCase)
		approvals.POST("/:id/reject", middleware.RequirePermission("approval.decide"), h.RejectCase)
	}
}

// ListCases returns paginated approval cases
// @Summary      List approval cases
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by case status"
// @Success      200  {object}  response.Response{data=response.PagedData}
// @Failure      500  {object}  response.Response
// @Router       /api/approvals [get]
func (h *ApprovalHandler) ListCases(c *gin.Context) {
	params := pagination.Parse(c)

	cases, total, err := h.approvalService.List(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, cases, total, params.Page, params.Limit))
}

type caseDecisionRequest struct {
	Comments string `json:"comments"`
}

// ApproveCase approves a pending case and dispatches the decision
// @Summary      Approve case
// @Description  Approves a pending case; the decision is forwarded to the owning entity after commit
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true   "Case ID"
// @Param        payload  body      caseDecisionRequest  false  "Decision comments"
// @Success      200      {object}  response.Response{data=model.ApprovalCase}
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/approve [post]
func (h *ApprovalHandler) ApproveCase(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req caseDecisionRequest
	_ = c.ShouldBindJSON(&req)

	approvalCase, err := h.approvalService.Approve(c.Request.Context(), id, caller, req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvalCase))
}

// RejectCase rejects a pending case and dispatches the decision
// @Summary      Reject case
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true   "Case ID"
// @Param        payload  body      caseDecisionRequest  false  "Decision comments"
// @Success      200      {object}  response.Response{data=model.ApprovalCase}
// @Failure      409      {object}  response.Response
// @Router       /api/approvals/{id}/reject [post]
func (h *ApprovalHandler) RejectCase(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req caseDecisionRequest
	_ = c.ShouldBindJSON(&req)

	approvalCase, err := h.approvalService.Reject(c.Request.Context(), id, caller, req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvalCase))
}
