package admin

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/middleware"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPayoutService 是 PayoutServiceInterface 的模拟实现
type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) Request(fundraiserID, projectID int, amount float64) (*model.Payout, error) {
	args := m.Called(fundraiserID, projectID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutService) GetByID(role string, actorID, payoutID int) (*model.Payout, error) {
	args := m.Called(role, actorID, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutService) Approve(payoutID int) (*model.Payout, error) {
	args := m.Called(payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutService) Reject(payoutID int, reason string) (*model.Payout, error) {
	args := m.Called(payoutID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutService) MarkTransferred(payoutID int, transferRef string) (*model.Payout, error) {
	args := m.Called(payoutID, transferRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutService) Cancel(actorID, payoutID int, reason string) (*model.Payout, error) {
	args := m.Called(actorID, payoutID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payout), args.Error(1)
}

func (m *MockPayoutService) Overview(role string, actorID, projectID int) (*model.PayoutOverview, error) {
	args := m.Called(role, actorID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutOverview), args.Error(1)
}

func (m *MockPayoutService) ListMine(fundraiserID, limit, offset int) ([]*model.Payout, error) {
	args := m.Called(fundraiserID, limit, offset)
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutService) ListPending(limit, offset int) ([]*model.Payout, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Payout), args.Error(1)
}

var _ service.PayoutServiceInterface = (*MockPayoutService)(nil)

// MockProjectService 是 ProjectServiceInterface 的模拟实现
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(fundraiserID int, title, description string, targetAmount float64) (*model.Project, error) {
	args := m.Called(fundraiserID, title, description, targetAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) GetByID(projectID int) (*model.Project, error) {
	args := m.Called(projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) ListMine(fundraiserID, limit, offset int) ([]*model.Project, error) {
	args := m.Called(fundraiserID, limit, offset)
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectService) ListPublic(limit, offset int) ([]*model.Project, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectService) ListPending(limit, offset int) ([]*model.Project, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *MockProjectService) Update(actorID int, project *model.Project) (*model.Project, error) {
	args := m.Called(actorID, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Activate(projectID int) (*model.Project, error) {
	args := m.Called(projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Reject(projectID int, reason string) (*model.Project, error) {
	args := m.Called(projectID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectService) Close(role string, actorID, projectID int) (*model.Project, error) {
	args := m.Called(role, actorID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

var _ service.ProjectServiceInterface = (*MockProjectService)(nil)

func setupAdminRouter(projectService service.ProjectServiceInterface, payoutService service.PayoutServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(projectService, payoutService, nil, nil, middleware.NewErrorMonitor())

	router := gin.New()
	// 测试中直接注入管理员身份，跳过认证中间件
	router.Use(func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Set("role", model.RoleAdmin)
	})
	router.PUT("/admin/projects/:id/activate", handler.ActivateProject)
	router.PUT("/admin/projects/:id/reject", handler.RejectProject)
	router.PUT("/admin/payouts/:id/approve", handler.ApprovePayout)
	router.PUT("/admin/payouts/:id/transfer", handler.TransferPayout)
	return router
}

// TestActivateProject 测试项目审核通过接口
func TestActivateProject(t *testing.T) {
	projectService := new(MockProjectService)
	router := setupAdminRouter(projectService, new(MockPayoutService))

	projectService.On("Activate", 1).Return(&model.Project{
		ID:     1,
		Status: model.ProjectStatusActive,
	}, nil)

	req, _ := http.NewRequest("PUT", "/admin/projects/1/activate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	projectService.AssertExpectations(t)
}

// TestRejectProjectRequiresReason 测试驳回原因必填
func TestRejectProjectRequiresReason(t *testing.T) {
	projectService := new(MockProjectService)
	router := setupAdminRouter(projectService, new(MockPayoutService))

	req, _ := http.NewRequest("PUT", "/admin/projects/1/reject", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	projectService.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything)
}

// TestApprovePayout 测试批准提现接口
func TestApprovePayout(t *testing.T) {
	payoutService := new(MockPayoutService)
	router := setupAdminRouter(new(MockProjectService), payoutService)

	payoutService.On("Approve", 5).Return(&model.Payout{
		ID:     5,
		Status: model.PayoutStatusApproved,
	}, nil)

	req, _ := http.NewRequest("PUT", "/admin/payouts/5/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	payoutService.AssertExpectations(t)
}

// TestApprovePayoutAlreadyProcessed 测试已处理的提现返回 404
func TestApprovePayoutAlreadyProcessed(t *testing.T) {
	payoutService := new(MockPayoutService)
	router := setupAdminRouter(new(MockProjectService), payoutService)

	payoutService.On("Approve", 5).
		Return(nil, errors.New(errors.ErrInvalidTransition, "提现申请不存在或已被处理"))

	req, _ := http.NewRequest("PUT", "/admin/payouts/5/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestTransferPayout 测试打款确认接口
func TestTransferPayout(t *testing.T) {
	payoutService := new(MockPayoutService)
	router := setupAdminRouter(new(MockProjectService), payoutService)

	payoutService.On("MarkTransferred", 5, "TRF-20260901-001").Return(&model.Payout{
		ID:          5,
		Status:      model.PayoutStatusTransferred,
		TransferRef: "TRF-20260901-001",
	}, nil)

	body := bytes.NewBufferString(`{"transfer_ref": "TRF-20260901-001"}`)
	req, _ := http.NewRequest("PUT", "/admin/payouts/5/transfer", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	payoutService.AssertExpectations(t)
}
