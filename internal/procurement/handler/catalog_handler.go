package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// CatalogHandler 物料与供应商主数据处理器
type CatalogHandler struct {
	svc *service.MasterDataService
}

func NewCatalogHandler(svc *service.MasterDataService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListItems 物料列表
// GET /api/v1/items?category=xxx&search=xxx
func (h *CatalogHandler) ListItems(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"category": c.Query("category"),
		"search":   c.Query("search"),
	}

	items, total, err := h.svc.ListItems(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取物料列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// CreateItem 创建物料
// POST /api/v1/items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var input service.CreateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.CreateItem(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, item)
}

// ListSuppliers 供应商列表
// GET /api/v1/suppliers?search=xxx
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"search": c.Query("search"),
	}

	items, total, err := h.svc.ListSuppliers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取供应商列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// CreateSupplier 创建供应商
// POST /api/v1/suppliers
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var input service.CreateSupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	supplier, err := h.svc.CreateSupplier(c.Request.Context(), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, supplier)
}
