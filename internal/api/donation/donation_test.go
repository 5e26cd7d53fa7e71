package donation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDonationService 是 DonationServiceInterface 的模拟实现
type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) CreateCheckout(projectID int, amount float64, donatorName, donatorEmail string) (*model.CheckoutSession, error) {
	args := m.Called(projectID, amount, donatorName, donatorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutSession), args.Error(1)
}

func (m *MockDonationService) Reconcile(orderID, transactionStatus, fraudStatus string) (*model.Donation, error) {
	args := m.Called(orderID, transactionStatus, fraudStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) Finish(orderID string) (*model.Donation, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) Status(orderID string) (*model.Donation, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) ListPublic(projectID, limit, offset int) ([]*model.Donation, error) {
	args := m.Called(projectID, limit, offset)
	return args.Get(0).([]*model.Donation), args.Error(1)
}

func (m *MockDonationService) Recalculate() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

var _ service.DonationServiceInterface = (*MockDonationService)(nil)

func setupRouter(handler *DonationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/donations", handler.Checkout)
	router.POST("/donations/webhook", handler.Webhook)
	router.GET("/donations/:order_id", handler.Status)
	return router
}

// TestCheckout 测试捐款下单接口
func TestCheckout(t *testing.T) {
	mockService := new(MockDonationService)
	router := setupRouter(NewDonationHandler(mockService))

	mockService.On("CreateCheckout", 1, 50000.0, "张三", "zhangsan@example.com").
		Return(&model.CheckoutSession{
			OrderID:     "DON-1-abc",
			Token:       "snap-token",
			RedirectURL: "https://example.com/pay",
		}, nil)

	body := []byte(`{"project_id": 1, "amount": 50000, "donator_name": "张三", "donator_email": "zhangsan@example.com"}`)
	req, _ := http.NewRequest("POST", "/donations", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

// TestCheckoutInvalidBody 测试非法请求体
func TestCheckoutInvalidBody(t *testing.T) {
	mockService := new(MockDonationService)
	router := setupRouter(NewDonationHandler(mockService))

	// 金额缺失
	body := []byte(`{"project_id": 1}`)
	req, _ := http.NewRequest("POST", "/donations", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateCheckout",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestWebhook 测试网关通知触发对账
func TestWebhook(t *testing.T) {
	mockService := new(MockDonationService)
	router := setupRouter(NewDonationHandler(mockService))

	mockService.On("Reconcile", "DON-1-abc", "settlement", "").
		Return(&model.Donation{
			ExternalID: "DON-1-abc",
			Status:     model.DonationStatusCompleted,
		}, nil)

	body := []byte(`{"order_id": "DON-1-abc", "transaction_status": "settlement", "gross_amount": "50000.00"}`)
	req, _ := http.NewRequest("POST", "/donations/webhook", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp errors.SuccessResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, model.DonationStatusCompleted, data["status"])
	mockService.AssertExpectations(t)
}

// TestWebhookDuplicate 测试重复通知仍返回 200
func TestWebhookDuplicate(t *testing.T) {
	mockService := new(MockDonationService)
	router := setupRouter(NewDonationHandler(mockService))

	// 对账幂等，重复通知拿到同样的终态
	mockService.On("Reconcile", "DON-1-abc", "settlement", "").
		Return(&model.Donation{
			ExternalID: "DON-1-abc",
			Status:     model.DonationStatusCompleted,
		}, nil).Twice()

	body := []byte(`{"order_id": "DON-1-abc", "transaction_status": "settlement"}`)
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("POST", "/donations/webhook", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	mockService.AssertExpectations(t)
}

// TestWebhookUnknownOrder 测试未知订单号返回 404
func TestWebhookUnknownOrder(t *testing.T) {
	mockService := new(MockDonationService)
	router := setupRouter(NewDonationHandler(mockService))

	mockService.On("Reconcile", "DON-99-missing", "settlement", "").
		Return(nil, errors.New(errors.ErrResourceNotFound, "捐款不存在"))

	body := []byte(`{"order_id": "DON-99-missing", "transaction_status": "settlement"}`)
	req, _ := http.NewRequest("POST", "/donations/webhook", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
