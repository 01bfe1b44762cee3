package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目与工程量清单处理器
type ProjectHandler struct {
	svc    *service.MasterDataService
	ledger *service.LedgerService
}

func NewProjectHandler(svc *service.MasterDataService, ledger *service.LedgerService) *ProjectHandler {
	return &ProjectHandler{svc: svc, ledger: ledger}
}

// List 项目列表
// GET /api/v1/projects?status=xxx&search=xxx
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.ListProjects(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取项目列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// Get 项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, project)
}

// Create 创建项目
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var input service.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	project, err := h.svc.CreateProject(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, project)
}

// ListBOQ 项目清单
// GET /api/v1/projects/:id/boq
func (h *ProjectHandler) ListBOQ(c *gin.Context) {
	lines, err := h.ledger.ProjectLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取清单失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": lines})
}

// SetBOQLine 写入清单行
// PUT /api/v1/projects/:id/boq
func (h *ProjectHandler) SetBOQLine(c *gin.Context) {
	var input service.BOQLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	line, err := h.svc.SetBOQLine(c.Request.Context(), c.Param("id"), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, line)
}

// RemainingQuantity 清单行剩余量
// GET /api/v1/projects/:id/boq/:item_id/remaining
func (h *ProjectHandler) RemainingQuantity(c *gin.Context) {
	remaining, err := h.ledger.Remaining(c.Request.Context(), c.Param("id"), c.Param("item_id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"remaining": remaining})
}
