package payment

import "crowdfund-backend/internal/model"

// CheckoutRequest 发起支付所需的订单信息
type CheckoutRequest struct {
	OrderID       string
	Amount        float64
	ItemID        string
	ItemName      string
	CustomerName  string
	CustomerEmail string
}

// CheckoutSession 网关返回的支付会话
type CheckoutSession struct {
	Token       string
	RedirectURL string
}

// TransactionStatus 网关侧的交易状态快照
type TransactionStatus struct {
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	GrossAmount       float64
}

// Gateway 支付网关边界。生产环境为 Midtrans 实现，测试中可替换为 mock
type Gateway interface {
	CreateCheckout(req *CheckoutRequest) (*CheckoutSession, error)
	CheckStatus(orderID string) (*TransactionStatus, error)
}

// MapStatus 把网关的状态词汇映射到捐款三态。
// capture+accept 和 settlement 视为支付完成；cancel/deny/expire 视为失败；
// 其余状态（pending、authorize 等）不构成迁移，返回 false
func MapStatus(transactionStatus, fraudStatus string) (string, bool) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return model.DonationStatusCompleted, true
		}
	case "settlement":
		return model.DonationStatusCompleted, true
	case "cancel", "deny", "expire":
		return model.DonationStatusFailed, true
	}
	return model.DonationStatusPending, false
}
