package admin

import (
	"strconv"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/middleware"
	"crowdfund-backend/internal/service"
	"crowdfund-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler 处理管理员侧的审核与提现操作
type AdminHandler struct {
	projectService      service.ProjectServiceInterface
	payoutService       service.PayoutServiceInterface
	donationService     service.DonationServiceInterface
	verificationService service.VerificationServiceInterface
	errorMonitor        *middleware.ErrorMonitor
}

func NewAdminHandler(
	projectService service.ProjectServiceInterface,
	payoutService service.PayoutServiceInterface,
	donationService service.DonationServiceInterface,
	verificationService service.VerificationServiceInterface,
	errorMonitor *middleware.ErrorMonitor,
) *AdminHandler {
	return &AdminHandler{
		projectService:      projectService,
		payoutService:       payoutService,
		donationService:     donationService,
		verificationService: verificationService,
		errorMonitor:        errorMonitor,
	}
}

// ListPendingProjects 待审核项目队列
func (h *AdminHandler) ListPendingProjects(c *gin.Context) {
	limit, offset := common.Pagination(c)
	projects, err := h.projectService.ListPending(limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, projects, "")
}

// ActivateProject 审核通过，PENDING -> ACTIVE
func (h *AdminHandler) ActivateProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	project, err := h.projectService.Activate(projectID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "项目审核通过")
}

// RejectProject 审核驳回，PENDING -> REJECTED
func (h *AdminHandler) RejectProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	var rejectData struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&rejectData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "驳回原因不能为空", err))
		return
	}

	project, err := h.projectService.Reject(projectID, rejectData.Reason)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "项目已驳回")
}

// CloseProject 管理员关闭项目
func (h *AdminHandler) CloseProject(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	project, err := h.projectService.Close(c.GetString("role"), c.GetInt("user_id"), projectID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "项目已关闭")
}

// ListPendingPayouts 待处理提现队列
func (h *AdminHandler) ListPendingPayouts(c *gin.Context) {
	limit, offset := common.Pagination(c)
	payouts, err := h.payoutService.ListPending(limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payouts, "")
}

// ApprovePayout 批准提现
func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	payoutID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的提现ID"))
		return
	}

	payout, err := h.payoutService.Approve(payoutID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payout, "提现已批准")
}

// RejectPayout 拒绝提现
func (h *AdminHandler) RejectPayout(c *gin.Context) {
	payoutID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的提现ID"))
		return
	}

	var rejectData struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&rejectData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "拒绝原因不能为空", err))
		return
	}

	payout, err := h.payoutService.Reject(payoutID, rejectData.Reason)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payout, "提现已拒绝")
}

// TransferPayout 确认打款完成，记录凭证号
func (h *AdminHandler) TransferPayout(c *gin.Context) {
	payoutID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的提现ID"))
		return
	}

	var transferData struct {
		TransferRef string `json:"transfer_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&transferData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "打款凭证号不能为空", err))
		return
	}

	payout, err := h.payoutService.MarkTransferred(payoutID, transferData.TransferRef)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payout, "打款已确认")
}

// ListPendingVerifications 待审核资质队列
func (h *AdminHandler) ListPendingVerifications(c *gin.Context) {
	limit, offset := common.Pagination(c)
	verifications, err := h.verificationService.ListPending(limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, verifications, "")
}

// ReviewVerification 裁决资质审核
func (h *AdminHandler) ReviewVerification(c *gin.Context) {
	verificationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的审核记录ID"))
		return
	}

	var reviewData struct {
		Decision string `json:"decision" binding:"required"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&reviewData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	verification, err := h.verificationService.Review(c.GetInt("user_id"),
		verificationID, reviewData.Decision, reviewData.Notes)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, verification, "资质审核完成")
}

// RecalculateCollected 全量重算项目已筹金额
func (h *AdminHandler) RecalculateCollected(c *gin.Context) {
	util.Logger.Info("管理员触发已筹金额重算", zap.Int("admin_id", c.GetInt("user_id")))

	updated, err := h.donationService.Recalculate()
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{
		"updated_projects": updated,
	}, "重算完成")
}

// ErrorStats 按错误码统计的请求错误数
func (h *AdminHandler) ErrorStats(c *gin.Context) {
	errors.HandleSuccess(c, h.errorMonitor.GetErrorCounts(), "")
}
