package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// RFQHandler 询价处理器
type RFQHandler struct {
	svc *service.QuotationService
}

func NewRFQHandler(svc *service.QuotationService) *RFQHandler {
	return &RFQHandler{svc: svc}
}

// List 询价单列表
// GET /api/v1/rfqs?request_id=xxx&status=xxx
func (h *RFQHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"request_id": c.Query("request_id"),
		"status":     c.Query("status"),
	}

	items, total, err := h.svc.ListRFQs(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取询价单列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// Get 询价单详情
// GET /api/v1/rfqs/:id
func (h *RFQHandler) Get(c *gin.Context) {
	rfq, err := h.svc.GetRFQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, rfq)
}

// Open 发起询价
// POST /api/v1/rfqs
func (h *RFQHandler) Open(c *gin.Context) {
	var input service.OpenRFQInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rfq, err := h.svc.OpenRFQ(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, rfq)
}

// SubmitQuotation 录入报价
// POST /api/v1/rfqs/:id/quotations
func (h *RFQHandler) SubmitQuotation(c *gin.Context) {
	var input service.SubmitQuotationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	quote, err := h.svc.SubmitQuotation(c.Request.Context(), c.Param("id"), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, quote)
}

// SelectWinner 选定中标报价并签发订单
// POST /api/v1/rfqs/:id/quotations/:quotation_id/select
func (h *RFQHandler) SelectWinner(c *gin.Context) {
	po, err := h.svc.SelectWinner(c.Request.Context(), c.Param("id"), c.Param("quotation_id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, po)
}
