package donation

import (
	"strconv"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/service"
	"crowdfund-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("donation_order", util.ValidateDonationOrderID)
	}
}

// DonationHandler 处理捐款下单与支付网关回调
type DonationHandler struct {
	donationService service.DonationServiceInterface
}

func NewDonationHandler(donationService service.DonationServiceInterface) *DonationHandler {
	return &DonationHandler{donationService}
}

// Checkout 对 ACTIVE 项目发起捐款，返回支付会话。
// 捐款人无需登录，姓名邮箱可留空（匿名捐款）
func (h *DonationHandler) Checkout(c *gin.Context) {
	var checkoutData struct {
		ProjectID    int     `json:"project_id" binding:"required"`
		Amount       float64 `json:"amount" binding:"required,gt=0"`
		DonatorName  string  `json:"donator_name"`
		DonatorEmail string  `json:"donator_email" binding:"omitempty,email"`
	}

	if err := c.ShouldBindJSON(&checkoutData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	session, err := h.donationService.CreateCheckout(checkoutData.ProjectID,
		checkoutData.Amount, checkoutData.DonatorName, checkoutData.DonatorEmail)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, session, "捐款订单创建成功")
}

// Webhook 接收支付网关的异步通知。对账本身是幂等的，
// 因此这里总是尽量返回 200，避免网关无意义地重发
func (h *DonationHandler) Webhook(c *gin.Context) {
	var notification struct {
		OrderID           string `json:"order_id" binding:"required,donation_order"`
		TransactionStatus string `json:"transaction_status" binding:"required"`
		FraudStatus       string `json:"fraud_status"`
		GrossAmount       string `json:"gross_amount"`
	}

	if err := c.ShouldBindJSON(&notification); err != nil {
		util.Logger.Warn("无法解析的网关通知", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的通知数据", err))
		return
	}

	util.Logger.Info("收到网关通知",
		zap.String("order_id", notification.OrderID),
		zap.String("transaction_status", notification.TransactionStatus))

	donation, err := h.donationService.Reconcile(notification.OrderID,
		notification.TransactionStatus, notification.FraudStatus)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"order_id": donation.ExternalID,
		"status":   donation.Status,
	}, "")
}

// Finish 支付页回跳后前端调用，主动向网关查单并对账
func (h *DonationHandler) Finish(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		errors.HandleError(c, errors.New(errors.ErrValidation, "缺少订单号"))
		return
	}

	donation, err := h.donationService.Finish(orderID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, donation, "")
}

// Status 按订单号查询捐款状态
func (h *DonationHandler) Status(c *gin.Context) {
	donation, err := h.donationService.Status(c.Param("order_id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, donation, "")
}

// ListPublic 公开的捐款墙，project_id 为 0 或缺省时返回全部项目的捐款
func (h *DonationHandler) ListPublic(c *gin.Context) {
	projectID, _ := strconv.Atoi(c.DefaultQuery("project_id", "0"))
	limit, offset := common.Pagination(c)

	donations, err := h.donationService.ListPublic(projectID, limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, donations, "")
}
