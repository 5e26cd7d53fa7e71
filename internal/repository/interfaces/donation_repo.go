package interfaces

import (
	"time"

	"crowdfund-backend/internal/model"
)

type DonationRepository interface {
	Create(donation *model.Donation) error
	GetByExternalID(externalID string) (*model.Donation, error)
	// Complete 在单个事务内锁定捐款行，PENDING 时置为 COMPLETED 并同步累加
	// 项目的 collected_amount；捐款已处于终态时原样返回且 applied 为 false
	Complete(externalID string, paidAt time.Time) (donation *model.Donation, applied bool, err error)
	// Fail 同 Complete，但目标状态为 FAILED，不触碰项目金额
	Fail(externalID string) (donation *model.Donation, applied bool, err error)
	// ListPublic 列出项目的 COMPLETED 捐款，projectID 为 0 时不过滤项目
	ListPublic(projectID, limit, offset int) ([]*model.Donation, error)
	SumCompletedByProject(projectID int) (float64, error)
	// RecalculateCollected 从 COMPLETED 捐款全量重算所有项目的 collected_amount，
	// 用于修复漂移的校正手段，返回被修正的项目数
	RecalculateCollected() (int64, error)
}
