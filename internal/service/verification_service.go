package service

import (
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/ledger"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/repository/interfaces"
	"crowdfund-backend/internal/storage"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
)

// VerificationService 处理募捐人资质文件的上传与审核。
// 审核通过与用户认证标记由存储层在同一事务内完成
type VerificationService struct {
	verificationRepo interfaces.VerificationRepository
	fileStorage      storage.FileStorage
	email            *EmailService
}

func NewVerificationService(verificationRepo interfaces.VerificationRepository, fileStorage storage.FileStorage, email *EmailService) *VerificationService {
	return &VerificationService{
		verificationRepo: verificationRepo,
		fileStorage:      fileStorage,
		email:            email,
	}
}

// Upload 上传资质文件并创建 PENDING 审核记录
func (s *VerificationService) Upload(fundraiserID int, file *multipart.FileHeader, notes string) (*model.Verification, error) {
	util.Logger.Info("开始上传资质文件",
		zap.Int("fundraiser_id", fundraiserID),
		zap.String("filename", file.Filename))

	path := fmt.Sprintf("verifications/%d/%s", fundraiserID, util.GenerateUniqueFilename(file.Filename))
	docPath, err := s.fileStorage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("上传资质文件失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrInternal, "上传资质文件失败", err)
	}

	verification := &model.Verification{
		FundraiserID: fundraiserID,
		DocPath:      docPath,
		Status:       model.VerificationStatusPending,
		Notes:        notes,
	}
	if err := s.verificationRepo.Create(verification); err != nil {
		return nil, err
	}

	util.Logger.Info("资质文件上传成功", zap.Int("verification_id", verification.ID))
	return verification, nil
}

// Review 管理员裁决资质审核，decision 为 APPROVED 或 REJECTED。
// 通过时募捐人的认证标记随裁决一并落盘
func (s *VerificationService) Review(reviewerID, verificationID int, decision, notes string) (*model.Verification, error) {
	decision = strings.ToUpper(strings.TrimSpace(decision))
	if decision != model.VerificationStatusApproved && decision != model.VerificationStatusRejected {
		return nil, errors.New(errors.ErrValidation, "审核结论只能是 APPROVED 或 REJECTED")
	}

	verification, err := s.verificationRepo.GetByID(verificationID)
	if err != nil {
		return nil, err
	}
	if verification == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "审核记录不存在")
	}

	event := ledger.EventApprove
	if decision == model.VerificationStatusRejected {
		event = ledger.EventReject
	}
	if _, err := ledger.NextVerificationStatus(verification.Status, event); err != nil {
		return nil, err
	}

	now := time.Now()
	applied, err := s.verificationRepo.Review(verificationID, reviewerID, decision, notes, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New(errors.ErrInvalidTransition, "审核记录已被处理")
	}

	verification.Status = decision
	verification.ReviewerID = &reviewerID
	verification.ReviewNotes = notes
	verification.ReviewedAt = &now

	util.Logger.Info("资质审核完成",
		zap.Int("verification_id", verificationID),
		zap.String("decision", decision))

	if s.email != nil {
		s.email.SendVerificationReviewedEmail(verification.FundraiserID, verification)
	}
	return verification, nil
}

// Status 募捐人查看自己最近一次审核记录
func (s *VerificationService) Status(fundraiserID int) (*model.Verification, error) {
	verification, err := s.verificationRepo.LatestByFundraiser(fundraiserID)
	if err != nil {
		return nil, err
	}
	if verification == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "尚未提交资质文件")
	}
	return verification, nil
}

// ListPending 管理员的待审核队列
func (s *VerificationService) ListPending(limit, offset int) ([]*model.Verification, error) {
	return s.verificationRepo.ListPending(limit, offset)
}

type VerificationServiceInterface interface {
	Upload(fundraiserID int, file *multipart.FileHeader, notes string) (*model.Verification, error)
	Review(reviewerID, verificationID int, decision, notes string) (*model.Verification, error)
	Status(fundraiserID int) (*model.Verification, error)
	ListPending(limit, offset int) ([]*model.Verification, error)
}

var _ VerificationServiceInterface = (*VerificationService)(nil)
