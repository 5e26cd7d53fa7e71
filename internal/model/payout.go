package model

import "time"

// 提现状态
const (
	PayoutStatusRequested   = "REQUESTED"
	PayoutStatusApproved    = "APPROVED"
	PayoutStatusRejected    = "REJECTED"    // 管理员拒绝（终态）
	PayoutStatusCancelled   = "CANCELLED"   // 募捐人自行取消（终态）
	PayoutStatusTransferred = "TRANSFERRED" // 已打款（终态）
)

// Payout 提现申请模型
type Payout struct {
	ID            int        `json:"id"`
	ProjectID     int        `json:"project_id"`
	FundraiserID  int        `json:"fundraiser_id"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`       // 拒绝/取消原因
	TransferRef   string     `json:"transfer_ref,omitempty"` // 打款凭证号
	RequestedAt   time.Time  `json:"requested_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`
}

// PayoutOverview 项目提现概览：可提现余额 = 已筹金额 - 已占用金额
type PayoutOverview struct {
	ProjectID         int     `json:"project_id"`
	CollectedAmount   float64 `json:"collected_amount"`
	RequestedAmount   float64 `json:"requested_amount"`
	ApprovedAmount    float64 `json:"approved_amount"`
	TransferredAmount float64 `json:"transferred_amount"`
	AvailableAmount   float64 `json:"available_amount"`
}
