package payout

import (
	"strconv"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// PayoutHandler 处理募捐人侧的提现请求
type PayoutHandler struct {
	payoutService service.PayoutServiceInterface
}

func NewPayoutHandler(payoutService service.PayoutServiceInterface) *PayoutHandler {
	return &PayoutHandler{payoutService}
}

// Request 募捐人对自己的项目发起提现申请
func (h *PayoutHandler) Request(c *gin.Context) {
	var requestData struct {
		ProjectID int     `json:"project_id" binding:"required"`
		Amount    float64 `json:"amount" binding:"required,gt=0"`
	}

	if err := c.ShouldBindJSON(&requestData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	payout, err := h.payoutService.Request(c.GetInt("user_id"),
		requestData.ProjectID, requestData.Amount)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, payout, "提现申请已提交")
}

// ListMine 募捐人查看自己的提现记录
func (h *PayoutHandler) ListMine(c *gin.Context) {
	limit, offset := common.Pagination(c)
	payouts, err := h.payoutService.ListMine(c.GetInt("user_id"), limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payouts, "")
}

// GetByID 查看单笔提现
func (h *PayoutHandler) GetByID(c *gin.Context) {
	payoutID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的提现ID"))
		return
	}

	payout, err := h.payoutService.GetByID(c.GetString("role"), c.GetInt("user_id"), payoutID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payout, "")
}

// Cancel 募捐人取消尚未批准的提现申请
func (h *PayoutHandler) Cancel(c *gin.Context) {
	payoutID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的提现ID"))
		return
	}

	var cancelData struct {
		Reason string `json:"reason"`
	}
	// 取消原因可省略
	_ = c.ShouldBindJSON(&cancelData)

	payout, err := h.payoutService.Cancel(c.GetInt("user_id"), payoutID, cancelData.Reason)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payout, "提现申请已取消")
}

// Overview 项目提现概览，含可提现余额
func (h *PayoutHandler) Overview(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	overview, err := h.payoutService.Overview(c.GetString("role"), c.GetInt("user_id"), projectID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, overview, "")
}
