package service

import (
	"strings"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/ledger"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/repository/interfaces"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
)

// ProjectService 处理项目生命周期：创建后进入 PENDING，
// 管理员审核后转 ACTIVE 或 REJECTED，结束时转 CLOSED
type ProjectService struct {
	projectRepo interfaces.ProjectRepository
	email       *EmailService
}

func NewProjectService(projectRepo interfaces.ProjectRepository, email *EmailService) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, email: email}
}

// Create 创建项目，初始状态固定为 PENDING
func (s *ProjectService) Create(fundraiserID int, title, description string, targetAmount float64) (*model.Project, error) {
	util.Logger.Info("开始创建项目",
		zap.Int("fundraiser_id", fundraiserID),
		zap.String("title", title))

	if strings.TrimSpace(title) == "" {
		return nil, errors.New(errors.ErrValidation, "项目标题不能为空")
	}
	if targetAmount <= 0 {
		return nil, errors.New(errors.ErrValidation, "目标金额必须大于零")
	}

	project := &model.Project{
		FundraiserID: fundraiserID,
		Title:        title,
		Description:  description,
		TargetAmount: targetAmount,
		Status:       model.ProjectStatusPending,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}

	util.Logger.Info("项目创建成功", zap.Int("project_id", project.ID))
	return project, nil
}

func (s *ProjectService) GetByID(projectID int) (*model.Project, error) {
	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "项目不存在")
	}
	return project, nil
}

// ListMine 募捐人查看自己的全部项目
func (s *ProjectService) ListMine(fundraiserID, limit, offset int) ([]*model.Project, error) {
	return s.projectRepo.ListByFundraiser(fundraiserID, limit, offset)
}

// ListPublic 公开列表只含 ACTIVE 项目
func (s *ProjectService) ListPublic(limit, offset int) ([]*model.Project, error) {
	return s.projectRepo.ListActive(limit, offset)
}

// ListPending 管理员的待审核队列
func (s *ProjectService) ListPending(limit, offset int) ([]*model.Project, error) {
	return s.projectRepo.ListPending(limit, offset)
}

// Update 募捐人更新自己的项目，仅 PENDING 和 ACTIVE 状态可编辑
func (s *ProjectService) Update(actorID int, project *model.Project) (*model.Project, error) {
	existing, err := s.GetByID(project.ID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(model.RoleFundraiser, actorID, existing.FundraiserID); err != nil {
		return nil, err
	}
	if existing.Status != model.ProjectStatusPending && existing.Status != model.ProjectStatusActive {
		return nil, errors.New(errors.ErrInvalidTransition, "项目已终结，不可编辑")
	}
	if project.TargetAmount <= 0 {
		return nil, errors.New(errors.ErrValidation, "目标金额必须大于零")
	}

	existing.Title = project.Title
	existing.Description = project.Description
	existing.TargetAmount = project.TargetAmount

	updated, err := s.projectRepo.Update(existing)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, errors.New(errors.ErrResourceNotFound, "项目不存在或无权修改")
	}
	return existing, nil
}

// Activate 管理员审核通过，PENDING -> ACTIVE
func (s *ProjectService) Activate(projectID int) (*model.Project, error) {
	return s.review(projectID, ledger.EventActivate, "")
}

// Reject 管理员审核驳回，PENDING -> REJECTED，原因必填
func (s *ProjectService) Reject(projectID int, reason string) (*model.Project, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New(errors.ErrValidation, "驳回原因不能为空")
	}
	return s.review(projectID, ledger.EventReject, reason)
}

// Close 关闭项目。管理员可关闭任何 PENDING/ACTIVE 项目，
// 募捐人只能关闭自己的
func (s *ProjectService) Close(role string, actorID, projectID int) (*model.Project, error) {
	project, err := s.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(role, actorID, project.FundraiserID); err != nil {
		return nil, err
	}

	to, err := ledger.NextProjectStatus(project.Status, ledger.EventClose)
	if err != nil {
		return nil, err
	}

	applied, err := s.projectRepo.UpdateStatusFrom(projectID, project.Status, to, "")
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New(errors.ErrInvalidTransition, "项目状态已变化，请重试")
	}

	project.Status = to
	util.Logger.Info("项目已关闭", zap.Int("project_id", projectID))
	return project, nil
}

func (s *ProjectService) review(projectID int, event ledger.Event, reason string) (*model.Project, error) {
	project, err := s.GetByID(projectID)
	if err != nil {
		return nil, err
	}

	to, err := ledger.NextProjectStatus(project.Status, event)
	if err != nil {
		return nil, err
	}

	applied, err := s.projectRepo.UpdateStatusFrom(projectID, project.Status, to, reason)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New(errors.ErrInvalidTransition, "项目状态已变化，请重试")
	}

	project.Status = to
	project.RejectReason = reason

	util.Logger.Info("项目审核完成",
		zap.Int("project_id", projectID),
		zap.String("status", to))

	if s.email != nil {
		s.email.SendProjectReviewedEmail(project.FundraiserID, project)
	}
	return project, nil
}

type ProjectServiceInterface interface {
	Create(fundraiserID int, title, description string, targetAmount float64) (*model.Project, error)
	GetByID(projectID int) (*model.Project, error)
	ListMine(fundraiserID, limit, offset int) ([]*model.Project, error)
	ListPublic(limit, offset int) ([]*model.Project, error)
	ListPending(limit, offset int) ([]*model.Project, error)
	Update(actorID int, project *model.Project) (*model.Project, error)
	Activate(projectID int) (*model.Project, error)
	Reject(projectID int, reason string) (*model.Project, error)
	Close(role string, actorID, projectID int) (*model.Project, error)
}

var _ ProjectServiceInterface = (*ProjectService)(nil)
