package model

import "time"

// 资料审核状态
const (
	VerificationStatusPending  = "PENDING"
	VerificationStatusApproved = "APPROVED"
	VerificationStatusRejected = "REJECTED"
)

// Verification 募捐人资质文件审核记录
type Verification struct {
	ID           int        `json:"id"`
	FundraiserID int        `json:"fundraiser_id"`
	DocPath      string     `json:"doc_path"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`        // 上传者备注
	ReviewerID   *int       `json:"reviewer_id,omitempty"`  // 审核管理员
	ReviewNotes  string     `json:"review_notes,omitempty"` // 审核意见
	CreatedAt    time.Time  `json:"created_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}
