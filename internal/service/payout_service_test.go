package service

import (
	"testing"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestPayoutRequest 测试提现申请
func TestPayoutRequest(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	projectRepo := new(MockProjectRepository)
	svc := NewPayoutService(payoutRepo, projectRepo, nil)

	projectRepo.On("GetByID", 1).Return(&model.Project{
		ID:              1,
		FundraiserID:    10,
		Status:          model.ProjectStatusActive,
		CollectedAmount: 700000,
	}, nil)
	payoutRepo.On("Request", 1, 10, 300000.0).Return(&model.Payout{
		ID:           1,
		ProjectID:    1,
		FundraiserID: 10,
		Amount:       300000,
		Status:       model.PayoutStatusRequested,
	}, nil)

	payout, err := svc.Request(10, 1, 300000)
	assert.NoError(t, err)
	assert.Equal(t, model.PayoutStatusRequested, payout.Status)
	payoutRepo.AssertExpectations(t)
}

// TestPayoutRequestInsufficientFunds 测试超出可用余额的申请被拒绝
func TestPayoutRequestInsufficientFunds(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	projectRepo := new(MockProjectRepository)
	svc := NewPayoutService(payoutRepo, projectRepo, nil)

	// 已筹 700000，已有 400000 被占用，700001 超出一分钱也不行
	projectRepo.On("GetByID", 1).Return(&model.Project{
		ID:              1,
		FundraiserID:    10,
		Status:          model.ProjectStatusActive,
		CollectedAmount: 700000,
	}, nil)
	payoutRepo.On("Request", 1, 10, 300001.0).
		Return(nil, errors.New(errors.ErrInsufficientFunds, "提现金额超出可用余额"))
	payoutRepo.On("Request", 1, 10, 300000.0).Return(&model.Payout{
		ID:     2,
		Amount: 300000,
		Status: model.PayoutStatusRequested,
	}, nil)

	_, err := svc.Request(10, 1, 300001)
	assert.True(t, errors.Is(err, errors.ErrInsufficientFunds))

	// 恰好用满余额的申请可以通过
	payout, err := svc.Request(10, 1, 300000)
	assert.NoError(t, err)
	assert.Equal(t, model.PayoutStatusRequested, payout.Status)
}

// TestPayoutRequestNotOwner 测试只有项目所有者能申请提现
func TestPayoutRequestNotOwner(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	projectRepo := new(MockProjectRepository)
	svc := NewPayoutService(payoutRepo, projectRepo, nil)

	projectRepo.On("GetByID", 1).Return(&model.Project{
		ID:           1,
		FundraiserID: 10,
		Status:       model.ProjectStatusActive,
	}, nil)

	_, err := svc.Request(99, 1, 10000)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	payoutRepo.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything)
}

// TestPayoutRequestProjectNotPayable 测试 PENDING/REJECTED 项目不可提现
func TestPayoutRequestProjectNotPayable(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	projectRepo := new(MockProjectRepository)
	svc := NewPayoutService(payoutRepo, projectRepo, nil)

	projectRepo.On("GetByID", 2).Return(&model.Project{
		ID:           2,
		FundraiserID: 10,
		Status:       model.ProjectStatusPending,
	}, nil)

	_, err := svc.Request(10, 2, 10000)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

// TestPayoutApprove 测试批准提现
func TestPayoutApprove(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	payoutRepo.On("Approve", 1).Return(&model.Payout{
		ID:     1,
		Status: model.PayoutStatusApproved,
	}, true, nil)

	payout, err := svc.Approve(1)
	assert.NoError(t, err)
	assert.Equal(t, model.PayoutStatusApproved, payout.Status)
}

// TestPayoutApproveAlreadyProcessed 测试批准已处理的申请
func TestPayoutApproveAlreadyProcessed(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	payoutRepo.On("Approve", 1).Return(&model.Payout{
		ID:     1,
		Status: model.PayoutStatusRejected,
	}, false, nil)

	_, err := svc.Approve(1)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

// TestPayoutCancel 测试募捐人取消自己的申请
func TestPayoutCancel(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	payoutRepo.On("GetByID", 1).Return(&model.Payout{
		ID:           1,
		FundraiserID: 10,
		Status:       model.PayoutStatusRequested,
	}, nil)
	payoutRepo.On("Transition", 1, model.PayoutStatusRequested, model.PayoutStatusCancelled,
		"不再需要", "").Return(true, nil)

	payout, err := svc.Cancel(10, 1, "不再需要")
	assert.NoError(t, err)
	assert.Equal(t, model.PayoutStatusCancelled, payout.Status)
	payoutRepo.AssertExpectations(t)
}

// TestPayoutCancelTwice 测试已取消的申请不能再取消
func TestPayoutCancelTwice(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	payoutRepo.On("GetByID", 1).Return(&model.Payout{
		ID:           1,
		FundraiserID: 10,
		Status:       model.PayoutStatusCancelled,
	}, nil)

	_, err := svc.Cancel(10, 1, "")
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	payoutRepo.AssertNotCalled(t, "Transition",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestPayoutCancelNotOwner 测试他人不能取消申请
func TestPayoutCancelNotOwner(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	payoutRepo.On("GetByID", 1).Return(&model.Payout{
		ID:           1,
		FundraiserID: 10,
		Status:       model.PayoutStatusRequested,
	}, nil)

	_, err := svc.Cancel(99, 1, "")
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

// TestPayoutReject 测试拒绝提现必须给出原因
func TestPayoutReject(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	_, err := svc.Reject(1, "  ")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	payoutRepo.On("GetByID", 1).Return(&model.Payout{
		ID:     1,
		Status: model.PayoutStatusRequested,
	}, nil)
	payoutRepo.On("Transition", 1, model.PayoutStatusRequested, model.PayoutStatusRejected,
		"余额核算不符", "").Return(true, nil)

	payout, err := svc.Reject(1, "余额核算不符")
	assert.NoError(t, err)
	assert.Equal(t, model.PayoutStatusRejected, payout.Status)
}

// TestPayoutMarkTransferred 测试打款只能发生在 APPROVED 之后
func TestPayoutMarkTransferred(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	svc := NewPayoutService(payoutRepo, new(MockProjectRepository), nil)

	// REQUESTED 状态不能直接打款
	payoutRepo.On("GetByID", 1).Return(&model.Payout{
		ID:     1,
		Status: model.PayoutStatusRequested,
	}, nil).Once()

	_, err := svc.MarkTransferred(1, "TRF-001")
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	// APPROVED 状态可以
	payoutRepo.On("GetByID", 1).Return(&model.Payout{
		ID:           1,
		FundraiserID: 10,
		Status:       model.PayoutStatusApproved,
	}, nil)
	payoutRepo.On("Transition", 1, model.PayoutStatusApproved, model.PayoutStatusTransferred,
		"", "TRF-001").Return(true, nil)

	payout, err := svc.MarkTransferred(1, "TRF-001")
	assert.NoError(t, err)
	assert.Equal(t, model.PayoutStatusTransferred, payout.Status)
	assert.Equal(t, "TRF-001", payout.TransferRef)
}

// TestPayoutOverview 测试概览的权限控制
func TestPayoutOverview(t *testing.T) {
	payoutRepo := new(MockPayoutRepository)
	projectRepo := new(MockProjectRepository)
	svc := NewPayoutService(payoutRepo, projectRepo, nil)

	projectRepo.On("GetByID", 1).Return(&model.Project{
		ID:           1,
		FundraiserID: 10,
	}, nil)
	payoutRepo.On("Overview", 1).Return(&model.PayoutOverview{
		ProjectID:         1,
		CollectedAmount:   700000,
		RequestedAmount:   100000,
		ApprovedAmount:    200000,
		TransferredAmount: 100000,
		AvailableAmount:   300000,
	}, nil)

	// 所有者可见
	overview, err := svc.Overview(model.RoleFundraiser, 10, 1)
	assert.NoError(t, err)
	assert.Equal(t, 300000.0, overview.AvailableAmount)

	// 管理员可见
	_, err = svc.Overview(model.RoleAdmin, 1, 1)
	assert.NoError(t, err)

	// 其他募捐人不可见
	_, err = svc.Overview(model.RoleFundraiser, 99, 1)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}
