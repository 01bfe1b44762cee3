package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// POHandler 采购订单处理器，含收货登记
type POHandler struct {
	svc *service.ProcurementService
}

func NewPOHandler(svc *service.ProcurementService) *POHandler {
	return &POHandler{svc: svc}
}

// List 采购订单列表
// GET /api/v1/purchase-orders?project_id=xxx&supplier_id=xxx&status=xxx
func (h *POHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"project_id":  c.Query("project_id"),
		"supplier_id": c.Query("supplier_id"),
		"status":      c.Query("status"),
	}

	items, total, err := h.svc.ListPOs(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取采购订单列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// Get 采购订单详情
// GET /api/v1/purchase-orders/:id
func (h *POHandler) Get(c *gin.Context) {
	po, err := h.svc.GetPO(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// Issue 自申请签发采购订单
// POST /api/v1/purchase-orders
func (h *POHandler) Issue(c *gin.Context) {
	var input service.IssuePOInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.IssuePO(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, po)
}

// Approve 财务审批
// POST /api/v1/purchase-orders/:id/approve
func (h *POHandler) Approve(c *gin.Context) {
	po, err := h.svc.ApprovePO(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// EditPricesInput 改价请求
type EditPricesInput struct {
	Prices []service.PriceInput `json:"prices" binding:"required"`
}

// EditPrices 调整行项单价
// PUT /api/v1/purchase-orders/:id/prices
func (h *POHandler) EditPrices(c *gin.Context) {
	var input EditPricesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.EditPrices(c.Request.Context(), c.Param("id"), GetUserID(c), input.Prices)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// Dispatch 下发供应商
// POST /api/v1/purchase-orders/:id/dispatch
func (h *POHandler) Dispatch(c *gin.Context) {
	po, err := h.svc.Dispatch(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// CancelInput 取消请求
type CancelInput struct {
	Reason string `json:"reason"`
}

// Cancel 取消订单
// POST /api/v1/purchase-orders/:id/cancel
func (h *POHandler) Cancel(c *gin.Context) {
	var input CancelInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.CancelPO(c.Request.Context(), c.Param("id"), GetUserID(c), input.Reason)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// PostReceiptInput 收货请求
type PostReceiptInput struct {
	Lines []service.ReceiptLineInput `json:"lines" binding:"required"`
}

// PostReceipt 登记收货
// POST /api/v1/purchase-orders/:id/receipts
func (h *POHandler) PostReceipt(c *gin.Context) {
	var input PostReceiptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	receipt, advisories, err := h.svc.PostReceipt(c.Request.Context(), c.Param("id"), GetUserID(c), input.Lines)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, gin.H{
		"receipt":    receipt,
		"advisories": advisories,
	})
}

// ListReceipts 收货单列表
// GET /api/v1/receipts?po_id=xxx&project_id=xxx
func (h *POHandler) ListReceipts(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"po_id":      c.Query("po_id"),
		"project_id": c.Query("project_id"),
	}

	items, total, err := h.svc.ListReceipts(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取收货单列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// GetReceipt 收货单详情
// GET /api/v1/receipts/:id
func (h *POHandler) GetReceipt(c *gin.Context) {
	receipt, err := h.svc.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, receipt)
}
