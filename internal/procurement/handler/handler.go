package handler

import (
	"errors"
	"strconv"

	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Auth     *AuthHandler
	Request  *RequestHandler
	PO       *POHandler
	RFQ      *RFQHandler
	Invoice  *InvoiceHandler
	Project  *ProjectHandler
	Catalog  *CatalogHandler
	User     *UserHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(
	auth *service.AuthService,
	request *service.RequestService,
	procurement *service.ProcurementService,
	quotation *service.QuotationService,
	invoice *service.InvoiceService,
	masterdata *service.MasterDataService,
	ledger *service.LedgerService,
) *Handlers {
	return &Handlers{
		Auth:    NewAuthHandler(auth),
		Request: NewRequestHandler(request),
		PO:      NewPOHandler(procurement),
		RFQ:     NewRFQHandler(quotation),
		Invoice: NewInvoiceHandler(invoice),
		Project: NewProjectHandler(masterdata, ledger),
		Catalog: NewCatalogHandler(masterdata),
		User:    NewUserHandler(masterdata),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError 将业务错误映射为HTTP响应
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrApprovalLimitExceeded):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrAlreadyLinked),
		errors.Is(err, service.ErrInvalidTransition):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrEmptyRequest),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrQuantityExceeded),
		errors.Is(err, service.ErrItemNotOnOrder),
		errors.Is(err, service.ErrItemNotInRequest):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// ListPayload 组装分页列表响应
func ListPayload(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
