package service

import (
	"strings"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/ledger"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/repository/interfaces"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
)

// 申请锁项目行后锁提现行，批准方向相反，
// 两者并发时 MySQL 可能回滚其中一个事务，整个单元重跑即可
const payoutMaxRetries = 3

// PayoutService 处理提现生命周期：募捐人申请，管理员批准/拒绝后打款，
// 募捐人可在批准前取消。余额校验由存储层在事务内完成
type PayoutService struct {
	payoutRepo  interfaces.PayoutRepository
	projectRepo interfaces.ProjectRepository
	email       *EmailService
}

func NewPayoutService(payoutRepo interfaces.PayoutRepository, projectRepo interfaces.ProjectRepository, email *EmailService) *PayoutService {
	return &PayoutService{
		payoutRepo:  payoutRepo,
		projectRepo: projectRepo,
		email:       email,
	}
}

// Request 募捐人对自己的项目发起提现申请。
// REQUESTED/APPROVED/TRANSFERRED 三态都占用余额，申请即预留
func (s *PayoutService) Request(fundraiserID, projectID int, amount float64) (*model.Payout, error) {
	util.Logger.Info("开始提现申请",
		zap.Int("fundraiser_id", fundraiserID),
		zap.Int("project_id", projectID),
		zap.Float64("amount", amount))

	if amount <= 0 {
		return nil, errors.New(errors.ErrValidation, "提现金额必须大于零")
	}

	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "项目不存在")
	}
	if project.FundraiserID != fundraiserID {
		return nil, errors.New(errors.ErrForbidden, "只能对自己的项目申请提现")
	}
	if project.Status != model.ProjectStatusActive && project.Status != model.ProjectStatusClosed {
		return nil, errors.New(errors.ErrInvalidTransition, "项目当前状态不可提现")
	}

	var payout *model.Payout
	err = common.WithRetry(func() error {
		var opErr error
		payout, opErr = s.payoutRepo.Request(projectID, fundraiserID, amount)
		return opErr
	}, payoutMaxRetries)
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// GetByID 查看单笔提现，管理员或所有者可见
func (s *PayoutService) GetByID(role string, actorID, payoutID int) (*model.Payout, error) {
	payout, err := s.loadPayout(payoutID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(role, actorID, payout.FundraiserID); err != nil {
		return nil, err
	}
	return payout, nil
}

// Approve 管理员批准提现，存储层在事务内重新核算余额
func (s *PayoutService) Approve(payoutID int) (*model.Payout, error) {
	var payout *model.Payout
	var applied bool
	err := common.WithRetry(func() error {
		var opErr error
		payout, applied, opErr = s.payoutRepo.Approve(payoutID)
		return opErr
	}, payoutMaxRetries)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New(errors.ErrInvalidTransition, "提现申请不存在或已被处理")
	}

	util.Logger.Info("提现批准成功", zap.Int("payout_id", payoutID))
	return payout, nil
}

// Reject 管理员拒绝提现，原因必填
func (s *PayoutService) Reject(payoutID int, reason string) (*model.Payout, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New(errors.ErrValidation, "拒绝原因不能为空")
	}
	payout, err := s.loadPayout(payoutID)
	if err != nil {
		return nil, err
	}
	return s.transition(payout, ledger.EventReject, reason, "")
}

// MarkTransferred 管理员确认打款完成，记录凭证号
func (s *PayoutService) MarkTransferred(payoutID int, transferRef string) (*model.Payout, error) {
	if strings.TrimSpace(transferRef) == "" {
		return nil, errors.New(errors.ErrValidation, "打款凭证号不能为空")
	}

	payout, err := s.loadPayout(payoutID)
	if err != nil {
		return nil, err
	}
	payout, err = s.transition(payout, ledger.EventTransfer, "", transferRef)
	if err != nil {
		return nil, err
	}

	if s.email != nil {
		s.email.SendPayoutTransferredEmail(payout.FundraiserID, payout)
	}
	return payout, nil
}

// Cancel 募捐人取消自己尚未批准的提现申请
func (s *PayoutService) Cancel(actorID, payoutID int, reason string) (*model.Payout, error) {
	payout, err := s.loadPayout(payoutID)
	if err != nil {
		return nil, err
	}
	if err := ledger.Authorize(model.RoleFundraiser, actorID, payout.FundraiserID); err != nil {
		return nil, err
	}

	return s.transition(payout, ledger.EventCancel, reason, "")
}

func (s *PayoutService) loadPayout(payoutID int) (*model.Payout, error) {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "提现申请不存在")
	}
	return payout, nil
}

func (s *PayoutService) transition(payout *model.Payout, event ledger.Event, reason, transferRef string) (*model.Payout, error) {
	to, err := ledger.NextPayoutStatus(payout.Status, event)
	if err != nil {
		return nil, err
	}

	applied, err := s.payoutRepo.Transition(payout.ID, payout.Status, to, reason, transferRef)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New(errors.ErrInvalidTransition, "提现状态已变化，请重试")
	}

	payout.Status = to
	payout.Reason = reason
	payout.TransferRef = transferRef

	util.Logger.Info("提现状态更新成功",
		zap.Int("payout_id", payout.ID),
		zap.String("status", to))
	return payout, nil
}

// Overview 项目提现概览，管理员或项目所有者可见
func (s *PayoutService) Overview(role string, actorID, projectID int) (*model.PayoutOverview, error) {
	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "项目不存在")
	}
	if err := ledger.Authorize(role, actorID, project.FundraiserID); err != nil {
		return nil, err
	}
	return s.payoutRepo.Overview(projectID)
}

// ListMine 募捐人查看自己的提现记录
func (s *PayoutService) ListMine(fundraiserID, limit, offset int) ([]*model.Payout, error) {
	return s.payoutRepo.ListByFundraiser(fundraiserID, limit, offset)
}

// ListPending 管理员的待处理提现队列
func (s *PayoutService) ListPending(limit, offset int) ([]*model.Payout, error) {
	return s.payoutRepo.ListPending(limit, offset)
}

type PayoutServiceInterface interface {
	Request(fundraiserID, projectID int, amount float64) (*model.Payout, error)
	GetByID(role string, actorID, payoutID int) (*model.Payout, error)
	Approve(payoutID int) (*model.Payout, error)
	Reject(payoutID int, reason string) (*model.Payout, error)
	MarkTransferred(payoutID int, transferRef string) (*model.Payout, error)
	Cancel(actorID, payoutID int, reason string) (*model.Payout, error)
	Overview(role string, actorID, projectID int) (*model.PayoutOverview, error)
	ListMine(fundraiserID, limit, offset int) ([]*model.Payout, error)
	ListPending(limit, offset int) ([]*model.Payout, error)
}

var _ PayoutServiceInterface = (*PayoutService)(nil)
