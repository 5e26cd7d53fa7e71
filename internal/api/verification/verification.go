package verification

import (
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// 资质文件大小上限 10MB
const maxDocSize = 10 << 20

// VerificationHandler 处理募捐人资质文件的上传与查询
type VerificationHandler struct {
	verificationService service.VerificationServiceInterface
}

func NewVerificationHandler(verificationService service.VerificationServiceInterface) *VerificationHandler {
	return &VerificationHandler{verificationService}
}

// Upload 上传资质文件，multipart 表单字段 document
func (h *VerificationHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("document")
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "缺少资质文件", err))
		return
	}
	if file.Size > maxDocSize {
		errors.HandleError(c, errors.New(errors.ErrValidation, "文件大小超过限制"))
		return
	}

	verification, err := h.verificationService.Upload(c.GetInt("user_id"),
		file, c.PostForm("notes"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, verification, "资质文件已提交，等待审核")
}

// Status 募捐人查看自己最近一次审核记录
func (h *VerificationHandler) Status(c *gin.Context) {
	verification, err := h.verificationService.Status(c.GetInt("user_id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, verification, "")
}
