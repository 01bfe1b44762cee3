package service

import (
	"context"
	"fmt"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"go.uber.org/zap"
)

// RequestService 领料申请生命周期
// DRAFT → PENDING_TECHNICAL → APPROVED_TECHNICAL → IN_PROCUREMENT → COMPLETED
// REJECTED 可自 PENDING_TECHNICAL / APPROVED_TECHNICAL 进入。
type RequestService struct {
	requestRepo *repository.RequestRepository
	projectRepo *repository.ProjectRepository
	userRepo    *repository.UserRepository
	audit       *auditor
	logger      *zap.Logger
}

func NewRequestService(repos *repository.Repositories, logger *zap.Logger) *RequestService {
	return &RequestService{
		requestRepo: repos.Request,
		projectRepo: repos.Project,
		userRepo:    repos.User,
		audit:       &auditor{repo: repos.AuditLog, logger: logger},
		logger:      logger,
	}
}

// ListRequests 申请列表
func (s *RequestService) ListRequests(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialRequest, int64, error) {
	return s.requestRepo.FindAll(ctx, page, pageSize, filters)
}

// GetRequest 申请详情
func (s *RequestService) GetRequest(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	return s.requestRepo.FindByID(ctx, id)
}

// CreateRequestInput 创建申请入参
type CreateRequestInput struct {
	ProjectID string                   `json:"project_id" binding:"required"`
	Notes     string                   `json:"notes"`
	Items     []CreateRequestItemInput `json:"items"`
}

type CreateRequestItemInput struct {
	ItemID   string  `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	Notes    string  `json:"notes"`
}

// CreateRequest 创建申请（DRAFT）
func (s *RequestService) CreateRequest(ctx context.Context, requesterID string, input *CreateRequestInput) (*entity.MaterialRequest, error) {
	if _, err := s.projectRepo.FindByID(ctx, input.ProjectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", input.ProjectID, err)
	}

	req := &entity.MaterialRequest{
		ID:          newID(),
		ProjectID:   input.ProjectID,
		RequesterID: requesterID,
		Status:      entity.RequestStatusDraft,
		Notes:       input.Notes,
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %s", ErrInvalidQuantity, item.ItemID)
		}
		req.Items = append(req.Items, entity.RequestItem{
			ID:        newID(),
			RequestID: req.ID,
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
			SortOrder: i + 1,
		})
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   req.ID,
		Action:     "create",
		ToStatus:   req.Status,
		ActorID:    requesterID,
	})
	return req, nil
}

// SubmitRequest 提交申请：DRAFT → PENDING_TECHNICAL。
// 空申请拒绝提交。
func (s *RequestService) SubmitRequest(ctx context.Context, id, actorID string) (*entity.MaterialRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.RequestStatusDraft {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, req.Status)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyRequest
	}

	from := req.Status
	req.Status = entity.RequestStatusPendingTechnical
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   req.ID,
		Action:     "submit",
		FromStatus: from,
		ToStatus:   req.Status,
		ActorID:    actorID,
	})
	return req, nil
}

// ApproveTechnical 技术审批：PENDING_TECHNICAL → APPROVED_TECHNICAL。
// 仅 ENGINEER / GENERAL_MANAGER / ADMIN 可审。
func (s *RequestService) ApproveTechnical(ctx context.Context, id, approverID string) (*entity.MaterialRequest, error) {
	approver, err := s.userRepo.FindByID(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("approver %s: %w", approverID, err)
	}
	if !approver.HasTechnicalAuthority() {
		return nil, fmt.Errorf("%w: role %s cannot approve technically", ErrUnauthorized, approver.Role)
	}

	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.RequestStatusPendingTechnical {
		return nil, fmt.Errorf("%w: technical approval from %s", ErrInvalidTransition, req.Status)
	}

	from := req.Status
	now := time.Now()
	req.Status = entity.RequestStatusApprovedTechnical
	req.ApprovedBy = &approverID
	req.ApprovedAt = &now
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   req.ID,
		Action:     "approve_technical",
		FromStatus: from,
		ToStatus:   req.Status,
		ActorID:    approverID,
		ActorName:  approver.Name,
	})
	return req, nil
}

// RejectRequest 驳回：PENDING_TECHNICAL / APPROVED_TECHNICAL → REJECTED（终态）
func (s *RequestService) RejectRequest(ctx context.Context, id, approverID, reason string) (*entity.MaterialRequest, error) {
	approver, err := s.userRepo.FindByID(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("approver %s: %w", approverID, err)
	}
	if !approver.HasTechnicalAuthority() {
		return nil, fmt.Errorf("%w: role %s cannot reject", ErrUnauthorized, approver.Role)
	}

	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.RequestStatusPendingTechnical && req.Status != entity.RequestStatusApprovedTechnical {
		return nil, fmt.Errorf("%w: reject from %s", ErrInvalidTransition, req.Status)
	}

	from := req.Status
	req.Status = entity.RequestStatusRejected
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   req.ID,
		Action:     "reject",
		FromStatus: from,
		ToStatus:   req.Status,
		Details:    reason,
		ActorID:    approverID,
		ActorName:  approver.Name,
	})
	return req, nil
}
