package model

import "time"

// 捐款状态
const (
	DonationStatusPending   = "PENDING"
	DonationStatusCompleted = "COMPLETED"
	DonationStatusFailed    = "FAILED"
)

// Donation 捐款模型，external_id 为支付网关签发的唯一订单号
type Donation struct {
	ID           int        `json:"id"`
	ProjectID    int        `json:"project_id"`
	ExternalID   string     `json:"external_id"`
	DonatorName  string     `json:"donator_name,omitempty"`
	DonatorEmail string     `json:"donator_email,omitempty"`
	Amount       float64    `json:"amount"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"` // 仅在转为 COMPLETED 时写入
}

// CheckoutSession 创建捐款后返回给前端的支付信息
type CheckoutSession struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}
