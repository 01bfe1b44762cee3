package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"go.uber.org/zap"
)

// MasterDataService 主数据维护：项目与工程量清单、物料、供应商、用户
type MasterDataService struct {
	projectRepo  *repository.ProjectRepository
	boqRepo      *repository.BOQRepository
	itemRepo     *repository.ItemRepository
	supplierRepo *repository.SupplierRepository
	userRepo     *repository.UserRepository
	audit        *auditor
	logger       *zap.Logger
}

func NewMasterDataService(repos *repository.Repositories, logger *zap.Logger) *MasterDataService {
	return &MasterDataService{
		projectRepo:  repos.Project,
		boqRepo:      repos.BOQ,
		itemRepo:     repos.Item,
		supplierRepo: repos.Supplier,
		userRepo:     repos.User,
		audit:        &auditor{repo: repos.AuditLog, logger: logger},
		logger:       logger,
	}
}

// ListProjects 项目列表
func (s *MasterDataService) ListProjects(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Project, int64, error) {
	return s.projectRepo.FindAll(ctx, page, pageSize, filters)
}

// GetProject 项目详情（含清单）
func (s *MasterDataService) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	return s.projectRepo.FindByID(ctx, id)
}

// CreateProjectInput 创建项目入参
type CreateProjectInput struct {
	Code      string  `json:"code" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	OwnerName string  `json:"owner_name"`
	Budget    float64 `json:"budget"`
}

// CreateProject 创建项目
func (s *MasterDataService) CreateProject(ctx context.Context, actorID string, input *CreateProjectInput) (*entity.Project, error) {
	project := &entity.Project{
		ID:        newID(),
		Code:      input.Code,
		Name:      input.Name,
		OwnerName: input.OwnerName,
		Budget:    input.Budget,
		Status:    "ACTIVE",
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "project",
		EntityID:   project.ID,
		Action:     "create",
		Details:    fmt.Sprintf("project %s (%s)", project.Name, project.Code),
		ActorID:    actorID,
	})
	return project, nil
}

// BOQLineInput 清单行入参
type BOQLineInput struct {
	ItemID        string  `json:"item_id" binding:"required"`
	TotalQuantity float64 `json:"total_quantity" binding:"required"`
}

// SetBOQLine 写入或调整清单行计划量。
// 计划量不得低于已收量，已收量只由收货流程累加。
func (s *MasterDataService) SetBOQLine(ctx context.Context, projectID, actorID string, input *BOQLineInput) (*entity.ProjectBOQ, error) {
	if input.TotalQuantity <= 0 {
		return nil, fmt.Errorf("%w: total quantity", ErrInvalidQuantity)
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	if _, err := s.itemRepo.FindByID(ctx, input.ItemID); err != nil {
		return nil, fmt.Errorf("item %s: %w", input.ItemID, err)
	}

	line, err := s.boqRepo.FindLine(ctx, projectID, input.ItemID)
	switch {
	case err == nil:
		if input.TotalQuantity < line.ReceivedQuantity {
			return nil, fmt.Errorf("%w: total quantity %.2f below received %.2f",
				ErrInvalidQuantity, input.TotalQuantity, line.ReceivedQuantity)
		}
		line.TotalQuantity = input.TotalQuantity
		if err := s.boqRepo.Update(ctx, line); err != nil {
			return nil, err
		}
	case errors.Is(err, repository.ErrNotFound):
		line = &entity.ProjectBOQ{
			ID:            newID(),
			ProjectID:     projectID,
			ItemID:        input.ItemID,
			TotalQuantity: input.TotalQuantity,
		}
		if err := s.boqRepo.Create(ctx, line); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "project",
		EntityID:   projectID,
		Action:     "set_boq_line",
		Details:    fmt.Sprintf("item %s planned quantity %.2f", input.ItemID, input.TotalQuantity),
		ActorID:    actorID,
	})
	return line, nil
}

// ListItems 物料列表
func (s *MasterDataService) ListItems(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Item, int64, error) {
	return s.itemRepo.FindAll(ctx, page, pageSize, filters)
}

// CreateItemInput 创建物料入参
type CreateItemInput struct {
	SKU       string  `json:"sku" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Unit      string  `json:"unit"`
	Category  string  `json:"category"`
	BasePrice float64 `json:"base_price"`
}

// CreateItem 创建物料
func (s *MasterDataService) CreateItem(ctx context.Context, input *CreateItemInput) (*entity.Item, error) {
	item := &entity.Item{
		ID:        newID(),
		SKU:       input.SKU,
		Name:      input.Name,
		Unit:      input.Unit,
		Category:  input.Category,
		BasePrice: input.BasePrice,
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListSuppliers 供应商列表
func (s *MasterDataService) ListSuppliers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Supplier, int64, error) {
	return s.supplierRepo.FindAll(ctx, page, pageSize, filters)
}

// CreateSupplierInput 创建供应商入参
type CreateSupplierInput struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

// CreateSupplier 创建供应商
func (s *MasterDataService) CreateSupplier(ctx context.Context, input *CreateSupplierInput) (*entity.Supplier, error) {
	supplier := &entity.Supplier{
		ID:            newID(),
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Phone:         input.Phone,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// ListUsers 用户列表
func (s *MasterDataService) ListUsers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.User, int64, error) {
	return s.userRepo.FindAll(ctx, page, pageSize, filters)
}

// CreateUserInput 创建用户入参
type CreateUserInput struct {
	Name          string              `json:"name" binding:"required"`
	Email         string              `json:"email" binding:"required,email"`
	Password      string              `json:"password" binding:"required,min=8"`
	Role          string              `json:"role" binding:"required"`
	ApprovalLimit *float64            `json:"approval_limit"`
	Permissions   *entity.Permissions `json:"permissions"`
}

// CreateUser 创建用户，密码bcrypt入库
func (s *MasterDataService) CreateUser(ctx context.Context, actorID string, input *CreateUserInput) (*entity.User, error) {
	switch input.Role {
	case entity.RoleSupervisor, entity.RoleEngineer, entity.RoleQuantitySurveyor,
		entity.RoleProcurementManager, entity.RoleGeneralManager, entity.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %s", input.Role)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:            newID(),
		Name:          input.Name,
		Email:         input.Email,
		PasswordHash:  hash,
		Role:          input.Role,
		ApprovalLimit: input.ApprovalLimit,
		Status:        "active",
	}
	if input.Permissions != nil {
		user.Permissions = *input.Permissions
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "user",
		EntityID:   user.ID,
		Action:     "create",
		Details:    fmt.Sprintf("user %s role %s", user.Email, user.Role),
		ActorID:    actorID,
	})
	return user, nil
}

// UpdateUserInput 更新用户入参
type UpdateUserInput struct {
	Name          *string             `json:"name"`
	Role          *string             `json:"role"`
	ApprovalLimit *float64            `json:"approval_limit"`
	Permissions   *entity.Permissions `json:"permissions"`
	Status        *string             `json:"status"`
}

// UpdateUser 更新用户资料与授权属性
func (s *MasterDataService) UpdateUser(ctx context.Context, id, actorID string, input *UpdateUserInput) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.ApprovalLimit != nil {
		user.ApprovalLimit = input.ApprovalLimit
	}
	if input.Permissions != nil {
		user.Permissions = *input.Permissions
	}
	if input.Status != nil {
		user.Status = *input.Status
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "user",
		EntityID:   user.ID,
		Action:     "update",
		ActorID:    actorID,
	})
	return user, nil
}
