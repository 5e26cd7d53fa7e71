package model

import "time"

// 项目状态
const (
	ProjectStatusPending  = "PENDING"  // 等待管理员审核
	ProjectStatusActive   = "ACTIVE"   // 审核通过，可接受捐款
	ProjectStatusRejected = "REJECTED" // 审核未通过（终态）
	ProjectStatusClosed   = "CLOSED"   // 已关闭（终态）
)

// Project 众筹项目模型
type Project struct {
	ID              int       `json:"id"`
	FundraiserID    int       `json:"fundraiser_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	TargetAmount    float64   `json:"target_amount"`
	CollectedAmount float64   `json:"collected_amount"` // 已收到的捐款总额（仅统计 COMPLETED 捐款）
	Status          string    `json:"status"`
	RejectReason    string    `json:"reject_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
