package interfaces

import "crowdfund-backend/internal/model"

type PayoutRepository interface {
	// Request 在单个事务内锁定项目行，校验可提现余额后插入 REQUESTED 记录；
	// 余额不足返回 ErrInsufficientFunds
	Request(projectID, fundraiserID int, amount float64) (*model.Payout, error)
	GetByID(id int) (*model.Payout, error)
	// Approve 在单个事务内锁定提现与项目行，重新校验
	// Σ(APPROVED+TRANSFERRED) + amount <= collected_amount 后迁移到 APPROVED；
	// 提现不处于 REQUESTED 时 applied 为 false
	Approve(payoutID int) (payout *model.Payout, applied bool, err error)
	// Transition 条件状态更新：WHERE status = from，返回是否迁移成功。
	// REJECTED/CANCELLED 记录 reason，TRANSFERRED 记录 transferRef
	Transition(payoutID int, from, to, reason, transferRef string) (bool, error)
	ListByFundraiser(fundraiserID, limit, offset int) ([]*model.Payout, error)
	ListPending(limit, offset int) ([]*model.Payout, error)
	Overview(projectID int) (*model.PayoutOverview, error)
}
