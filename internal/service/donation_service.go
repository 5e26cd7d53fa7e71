package service

import (
	"fmt"
	"time"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/payment"
	"crowdfund-backend/internal/repository/interfaces"
	"crowdfund-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reconcileMaxRetries = 3

// DonationService 处理捐款下单与网关回调对账。
// 下单在网关创建支付会话并落 PENDING 记录；对账由 webhook 或
// 主动查单驱动，幂等地把捐款推到 COMPLETED / FAILED 终态
type DonationService struct {
	donationRepo interfaces.DonationRepository
	projectRepo  interfaces.ProjectRepository
	gateway      payment.Gateway
}

func NewDonationService(donationRepo interfaces.DonationRepository, projectRepo interfaces.ProjectRepository, gateway payment.Gateway) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		projectRepo:  projectRepo,
		gateway:      gateway,
	}
}

// CreateCheckout 对 ACTIVE 项目发起捐款，返回支付会话。
// 订单号格式 DON-<项目ID>-<uuid>，作为后续对账的唯一键
func (s *DonationService) CreateCheckout(projectID int, amount float64, donatorName, donatorEmail string) (*model.CheckoutSession, error) {
	util.Logger.Info("开始创建捐款订单",
		zap.Int("project_id", projectID),
		zap.Float64("amount", amount))

	if amount <= 0 {
		return nil, errors.New(errors.ErrValidation, "捐款金额必须大于零")
	}

	project, err := s.projectRepo.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "项目不存在")
	}
	if project.Status != model.ProjectStatusActive {
		return nil, errors.New(errors.ErrProjectNotActive, "项目当前不接受捐款")
	}

	orderID := fmt.Sprintf("DON-%d-%s", projectID, uuid.NewString())

	session, err := s.gateway.CreateCheckout(&payment.CheckoutRequest{
		OrderID:       orderID,
		Amount:        amount,
		ItemID:        fmt.Sprintf("PROJECT-%d", projectID),
		ItemName:      project.Title,
		CustomerName:  donatorName,
		CustomerEmail: donatorEmail,
	})
	if err != nil {
		util.Logger.Error("创建支付会话失败", zap.Error(err), zap.String("order_id", orderID))
		return nil, errors.Wrap(errors.ErrPaymentGateway, "创建支付会话失败", err)
	}

	donation := &model.Donation{
		ProjectID:    projectID,
		ExternalID:   orderID,
		DonatorName:  donatorName,
		DonatorEmail: donatorEmail,
		Amount:       amount,
		Status:       model.DonationStatusPending,
	}
	if err := s.donationRepo.Create(donation); err != nil {
		return nil, err
	}

	util.Logger.Info("捐款订单创建成功",
		zap.String("order_id", orderID),
		zap.Int("donation_id", donation.ID))

	return &model.CheckoutSession{
		OrderID:     orderID,
		Token:       session.Token,
		RedirectURL: session.RedirectURL,
	}, nil
}

// Reconcile 幂等对账：同一通知重复投递时第一次之后全部落在
// 终态短路分支上，不产生第二次金额累加
func (s *DonationService) Reconcile(orderID, transactionStatus, fraudStatus string) (*model.Donation, error) {
	util.Logger.Info("开始捐款对账",
		zap.String("order_id", orderID),
		zap.String("transaction_status", transactionStatus),
		zap.String("fraud_status", fraudStatus))

	target, ok := payment.MapStatus(transactionStatus, fraudStatus)
	if !ok {
		// pending / authorize 等中间状态，不构成迁移
		util.Logger.Info("网关状态不构成迁移，忽略",
			zap.String("order_id", orderID),
			zap.String("transaction_status", transactionStatus))
		donation, err := s.donationRepo.GetByExternalID(orderID)
		if err != nil {
			return nil, err
		}
		if donation == nil {
			return nil, errors.New(errors.ErrResourceNotFound, "捐款不存在")
		}
		return donation, nil
	}

	var donation *model.Donation
	var applied bool
	err := common.WithRetry(func() error {
		var opErr error
		if target == model.DonationStatusCompleted {
			donation, applied, opErr = s.donationRepo.Complete(orderID, time.Now())
		} else {
			donation, applied, opErr = s.donationRepo.Fail(orderID)
		}
		return opErr
	}, reconcileMaxRetries)
	if err != nil {
		return nil, err
	}

	if !applied {
		util.Logger.Info("捐款已处于终态，重复通知被忽略",
			zap.String("order_id", orderID),
			zap.String("status", donation.Status))
	}
	return donation, nil
}

// Finish 支付页回跳后主动向网关查单并对账，
// 不信任回跳参数中的状态
func (s *DonationService) Finish(orderID string) (*model.Donation, error) {
	status, err := s.gateway.CheckStatus(orderID)
	if err != nil {
		util.Logger.Error("查询网关交易状态失败", zap.Error(err), zap.String("order_id", orderID))
		return nil, errors.Wrap(errors.ErrPaymentGateway, "查询交易状态失败", err)
	}
	return s.Reconcile(orderID, status.TransactionStatus, status.FraudStatus)
}

// Status 按订单号查询捐款
func (s *DonationService) Status(orderID string) (*model.Donation, error) {
	donation, err := s.donationRepo.GetByExternalID(orderID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "捐款不存在")
	}
	return donation, nil
}

// ListPublic 公开的捐款墙，只展示 COMPLETED 捐款
func (s *DonationService) ListPublic(projectID, limit, offset int) ([]*model.Donation, error) {
	return s.donationRepo.ListPublic(projectID, limit, offset)
}

// Recalculate 全量重算项目已筹金额，返回被修正的项目数
func (s *DonationService) Recalculate() (int64, error) {
	return s.donationRepo.RecalculateCollected()
}

type DonationServiceInterface interface {
	CreateCheckout(projectID int, amount float64, donatorName, donatorEmail string) (*model.CheckoutSession, error)
	Reconcile(orderID, transactionStatus, fraudStatus string) (*model.Donation, error)
	Finish(orderID string) (*model.Donation, error)
	Status(orderID string) (*model.Donation, error)
	ListPublic(projectID, limit, offset int) ([]*model.Donation, error)
	Recalculate() (int64, error)
}

var _ DonationServiceInterface = (*DonationService)(nil)
