package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// RequestHandler 领料申请处理器
type RequestHandler struct {
	svc *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// List 申请列表
// GET /api/v1/requests?project_id=xxx&requester_id=xxx&status=xxx
func (h *RequestHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"project_id":   c.Query("project_id"),
		"requester_id": c.Query("requester_id"),
		"status":       c.Query("status"),
	}

	items, total, err := h.svc.ListRequests(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取申请列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// Get 申请详情
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	req, err := h.svc.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, req)
}

// Create 创建申请
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req, err := h.svc.CreateRequest(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, req)
}

// Submit 提交申请进入技术审批
// POST /api/v1/requests/:id/submit
func (h *RequestHandler) Submit(c *gin.Context) {
	req, err := h.svc.SubmitRequest(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, req)
}

// ApproveTechnical 技术审批通过
// POST /api/v1/requests/:id/approve-technical
func (h *RequestHandler) ApproveTechnical(c *gin.Context) {
	req, err := h.svc.ApproveTechnical(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, req)
}

// RejectRequest 驳回申请
type RejectRequestInput struct {
	Reason string `json:"reason"`
}

// Reject 驳回申请
// POST /api/v1/requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	var input RejectRequestInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req, err := h.svc.RejectRequest(c.Request.Context(), c.Param("id"), GetUserID(c), input.Reason)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, req)
}
