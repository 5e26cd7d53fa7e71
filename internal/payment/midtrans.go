package payment

import (
	"strconv"

	"crowdfund-backend/internal/util"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"
)

// MidtransGateway 基于 Midtrans Snap + Core API 的网关实现
type MidtransGateway struct {
	snapClient snap.Client
	coreClient coreapi.Client
}

// NewMidtransGateway 创建 Midtrans 网关客户端
func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	return &MidtransGateway{
		snapClient: s,
		coreClient: c,
	}
}

// CreateCheckout 创建 Snap 支付会话
func (g *MidtransGateway) CreateCheckout(req *CheckoutRequest) (*CheckoutSession, error) {
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: int64(req.Amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.ItemID,
				Price: int64(req.Amount),
				Qty:   1,
				Name:  req.ItemName,
			},
		},
	}

	snapResp, err := g.snapClient.CreateTransaction(snapReq)
	if snapResp == nil {
		util.Logger.Error("创建 Midtrans 交易失败",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return nil, err
	}
	if err != nil {
		// Midtrans 偶尔在返回有效响应的同时带回非空错误
		util.Logger.Warn("Midtrans 返回了有效响应但附带错误",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
	}

	return &CheckoutSession{
		Token:       snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
	}, nil
}

// CheckStatus 向 Midtrans 核验交易状态，webhook 与 finish 回调都以此为准
func (g *MidtransGateway) CheckStatus(orderID string) (*TransactionStatus, error) {
	resp, err := g.coreClient.CheckTransaction(orderID)
	if resp == nil {
		util.Logger.Error("核验 Midtrans 交易状态失败",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, err
	}
	if err != nil {
		util.Logger.Warn("Midtrans 返回了有效响应但附带错误",
			zap.String("order_id", orderID),
			zap.Error(err))
	}

	grossAmount, _ := strconv.ParseFloat(resp.GrossAmount, 64)

	return &TransactionStatus{
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		GrossAmount:       grossAmount,
	}, nil
}
