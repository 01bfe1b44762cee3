package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler 发票处理器
type InvoiceHandler struct {
	svc *service.InvoiceService
}

func NewInvoiceHandler(svc *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// List 发票列表
// GET /api/v1/invoices?po_id=xxx&status=xxx
func (h *InvoiceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"po_id":  c.Query("po_id"),
		"status": c.Query("status"),
	}

	items, total, err := h.svc.ListInvoices(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取发票列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// Get 发票详情
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.svc.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, invoice)
}

// Create 登记发票并执行三方核对
// POST /api/v1/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var input service.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	invoice, err := h.svc.CreateInvoice(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, invoice)
}
