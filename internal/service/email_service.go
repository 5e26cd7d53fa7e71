package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"crowdfund-backend/config"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/repository/interfaces"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// EmailService 负责审核结果与打款完成的邮件通知。
// 所有发送都是异步的，失败只记日志，不影响主流程
type EmailService struct {
	smtpHost string
	smtpPort int
	username string
	password string
	userRepo interfaces.UserRepository
}

func NewEmailService(userRepo interfaces.UserRepository) *EmailService {
	return &EmailService{
		smtpHost: config.AppConfig.SMTPHost,
		smtpPort: config.AppConfig.SMTPPort,
		username: config.AppConfig.SMTPUsername,
		password: config.AppConfig.SMTPPassword,
		userRepo: userRepo,
	}
}

// SendProjectReviewedEmail 通知募捐人项目审核结果
func (s *EmailService) SendProjectReviewedEmail(fundraiserID int, project *model.Project) {
	user, err := s.userRepo.FindByID(fundraiserID)
	if err != nil || user == nil {
		util.Logger.Error("查找募捐人失败，跳过邮件通知",
			zap.Error(err), zap.Int("fundraiser_id", fundraiserID))
		return
	}

	var subject, body string
	switch project.Status {
	case model.ProjectStatusActive:
		subject = "您的项目已通过审核"
		body = fmt.Sprintf("亲爱的 %s，\n\n您的项目「%s」已通过审核，现在可以接受捐款了。\n\n查看项目：%s/projects/%d",
			user.Username, project.Title, config.AppConfig.FrontendURL, project.ID)
	case model.ProjectStatusRejected:
		subject = "您的项目未通过审核"
		body = fmt.Sprintf("亲爱的 %s，\n\n很遗憾，您的项目「%s」未通过审核。\n\n原因：%s\n\n您可以修改后重新提交。",
			user.Username, project.Title, project.RejectReason)
	default:
		return
	}

	s.sendEmailAsync(user.Email, subject, body)
}

// SendPayoutTransferredEmail 通知募捐人提现已打款
func (s *EmailService) SendPayoutTransferredEmail(fundraiserID int, payout *model.Payout) {
	user, err := s.userRepo.FindByID(fundraiserID)
	if err != nil || user == nil {
		util.Logger.Error("查找募捐人失败，跳过邮件通知",
			zap.Error(err), zap.Int("fundraiser_id", fundraiserID))
		return
	}

	subject := "您的提现已打款"
	body := fmt.Sprintf("亲爱的 %s，\n\n您申请的提现（金额 %.2f）已完成打款。\n\n打款凭证号：%s",
		user.Username, payout.Amount, payout.TransferRef)

	s.sendEmailAsync(user.Email, subject, body)
}

// SendVerificationReviewedEmail 通知募捐人资料审核结果
func (s *EmailService) SendVerificationReviewedEmail(fundraiserID int, verification *model.Verification) {
	user, err := s.userRepo.FindByID(fundraiserID)
	if err != nil || user == nil {
		util.Logger.Error("查找募捐人失败，跳过邮件通知",
			zap.Error(err), zap.Int("fundraiser_id", fundraiserID))
		return
	}

	var subject, body string
	if verification.Status == model.VerificationStatusApproved {
		subject = "您的资质审核已通过"
		body = fmt.Sprintf("亲爱的 %s，\n\n您提交的资质文件已通过审核，现在可以创建众筹项目了。", user.Username)
	} else {
		subject = "您的资质审核未通过"
		body = fmt.Sprintf("亲爱的 %s，\n\n很遗憾，您提交的资质文件未通过审核。\n\n审核意见：%s",
			user.Username, verification.ReviewNotes)
	}

	s.sendEmailAsync(user.Email, subject, body)
}

func (s *EmailService) sendEmailAsync(to, subject, body string) {
	go func() {
		if err := s.sendEmail(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", to))
		}
	}()
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.SSL = true
	d.TLSConfig = &tls.Config{ServerName: s.smtpHost}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}
