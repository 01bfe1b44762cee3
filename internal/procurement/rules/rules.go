// Package rules 采购业务规则表。无状态纯函数，只读已加载实体，
// 由各服务在写路径前调用；拦截与否由调用方决定。
package rules

import (
	"fmt"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
)

// DefaultApprovalLimit 未单独配置审批额度的用户适用的系统默认额度
const DefaultApprovalLimit = 50000.0

// boqWarningRatio 接近BOQ上限的预警阈值
const boqWarningRatio = 0.9

// Decision 审批判定结果
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanApprovePO 财务审批权限。
// GM与ADMIN始终放行；现场与技术角色一律拒绝；其余角色按审批额度判定。
func CanApprovePO(user *entity.User, po *entity.PurchaseOrder) Decision {
	switch user.Role {
	case entity.RoleGeneralManager, entity.RoleAdmin:
		return Decision{Allowed: true}
	case entity.RoleSupervisor, entity.RoleEngineer, entity.RoleQuantitySurveyor:
		return Decision{Allowed: false, Reason: "role not authorized for financial approval"}
	}

	limit := DefaultApprovalLimit
	if user.ApprovalLimit != nil {
		limit = *user.ApprovalLimit
	}
	if po.TotalAmount <= limit {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("order amount %.2f exceeds approval limit %.2f", po.TotalAmount, limit),
	}
}

// QuantityCheck 收货数量判定结果
type QuantityCheck struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateReceiptQuantity 收货数量上限，按行项硬性拦截
func ValidateReceiptQuantity(item *entity.POItem, inputQty float64) QuantityCheck {
	if inputQty <= 0 {
		return QuantityCheck{Valid: false, Message: "quantity must be greater than zero"}
	}
	remaining := item.Quantity - item.ReceivedQuantity
	if inputQty > remaining {
		return QuantityCheck{
			Valid:   false,
			Message: fmt.Sprintf("quantity %.2f exceeds remaining quantity %.2f on the order", inputQty, remaining),
		}
	}
	return QuantityCheck{Valid: true}
}

// BOQStatus 清单消耗风险等级
type BOQStatus string

const (
	BOQStatusOK       BOQStatus = "OK"
	BOQStatusWarning  BOQStatus = "WARNING"
	BOQStatusCritical BOQStatus = "CRITICAL"
)

// CheckBOQStatus 项目BOQ消耗风险。仅提示，不拦截；
// 与订单行上限校验相互独立，订单排程超出BOQ时两者可能不一致。
func CheckBOQStatus(line *entity.ProjectBOQ, newQty float64) (BOQStatus, string) {
	projected := line.ReceivedQuantity + newQty
	if projected > line.TotalQuantity {
		return BOQStatusCritical,
			fmt.Sprintf("projected quantity %.2f exceeds scheduled quantity %.2f", projected, line.TotalQuantity)
	}
	if projected > line.TotalQuantity*boqWarningRatio {
		return BOQStatusWarning, "approaching the scheduled quantity for this line"
	}
	return BOQStatusOK, ""
}

// CanEditPrices 价格编辑权限
func CanEditPrices(user *entity.User, poStatus string) bool {
	if poStatus == entity.POStatusCancelled {
		return false
	}
	return user.Permissions.CanEditPrices
}
