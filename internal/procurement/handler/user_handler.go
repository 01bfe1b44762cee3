package handler

import (
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户管理处理器
type UserHandler struct {
	svc *service.MasterDataService
}

func NewUserHandler(svc *service.MasterDataService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List 用户列表
// GET /api/v1/users?role=xxx&status=xxx&search=xxx
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"role":   c.Query("role"),
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.ListUsers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取用户列表失败: "+err.Error())
		return
	}
	Success(c, ListPayload(items, page, pageSize, total))
}

// Create 创建用户
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var input service.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, user)
}

// Update 更新用户
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var input service.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), GetUserID(c), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, user)
}
