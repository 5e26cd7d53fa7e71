package service

import (
	"mime/multipart"
	"time"

	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/payment"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockProjectRepository 是 ProjectRepository 接口的模拟实现
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(project *model.Project) error {
	args := m.Called(project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(id int) (*model.Project, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// 返回副本，避免服务端对返回对象的修改污染共享的 mock 数据
	project := *args.Get(0).(*model.Project)
	return &project, args.Error(1)
}

func (m *MockProjectRepository) ListByFundraiser(fundraiserID, limit, offset int) ([]*model.Project, error) {
	args := m.Called(fundraiserID, limit, offset)
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectRepository) ListActive(limit, offset int) ([]*model.Project, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectRepository) ListPending(limit, offset int) ([]*model.Project, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(project *model.Project) (bool, error) {
	args := m.Called(project)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjectRepository) UpdateStatusFrom(projectID int, from, to, rejectReason string) (bool, error) {
	args := m.Called(projectID, from, to, rejectReason)
	return args.Bool(0), args.Error(1)
}

// MockDonationRepository 是 DonationRepository 接口的模拟实现
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(donation *model.Donation) error {
	args := m.Called(donation)
	return args.Error(0)
}

func (m *MockDonationRepository) GetByExternalID(externalID string) (*model.Donation, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) Complete(externalID string, paidAt time.Time) (*model.Donation, bool, error) {
	args := m.Called(externalID, paidAt)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Donation), args.Bool(1), args.Error(2)
}

func (m *MockDonationRepository) Fail(externalID string) (*model.Donation, bool, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Donation), args.Bool(1), args.Error(2)
}

func (m *MockDonationRepository) ListPublic(projectID, limit, offset int) ([]*model.Donation, error) {
	args := m.Called(projectID, limit, offset)
	return args.Get(0).([]*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) SumCompletedByProject(projectID int) (float64, error) {
	args := m.Called(projectID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDonationRepository) RecalculateCollected() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockPayoutRepository 是 PayoutRepository 接口的模拟实现
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Request(projectID, fundraiserID int, amount float64) (*model.Payout, error) {
	args := m.Called(projectID, fundraiserID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) GetByID(id int) (*model.Payout, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) Approve(payoutID int) (*model.Payout, bool, error) {
	args := m.Called(payoutID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Payout), args.Bool(1), args.Error(2)
}

func (m *MockPayoutRepository) Transition(payoutID int, from, to, reason, transferRef string) (bool, error) {
	args := m.Called(payoutID, from, to, reason, transferRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) ListByFundraiser(fundraiserID, limit, offset int) ([]*model.Payout, error) {
	args := m.Called(fundraiserID, limit, offset)
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ListPending(limit, offset int) ([]*model.Payout, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) Overview(projectID int) (*model.PayoutOverview, error) {
	args := m.Called(projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutOverview), args.Error(1)
}

// MockVerificationRepository 是 VerificationRepository 接口的模拟实现
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(verification *model.Verification) error {
	args := m.Called(verification)
	return args.Error(0)
}

func (m *MockVerificationRepository) GetByID(id int) (*model.Verification, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verification), args.Error(1)
}

func (m *MockVerificationRepository) Review(id, reviewerID int, decision, notes string, at time.Time) (bool, error) {
	args := m.Called(id, reviewerID, decision, notes, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) LatestByFundraiser(fundraiserID int) (*model.Verification, error) {
	args := m.Called(fundraiserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verification), args.Error(1)
}

func (m *MockVerificationRepository) ListPending(limit, offset int) ([]*model.Verification, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Verification), args.Error(1)
}

// MockGateway 是支付网关接口的模拟实现
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckout(req *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) CheckStatus(orderID string) (*payment.TransactionStatus, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.TransactionStatus), args.Error(1)
}

// MockFileStorage 是文件存储接口的模拟实现
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFile(file *multipart.FileHeader, path string) (string, error) {
	args := m.Called(file, path)
	return args.String(0), args.Error(1)
}
