package interfaces

import (
	"time"

	"crowdfund-backend/internal/model"
)

type VerificationRepository interface {
	Create(verification *model.Verification) error
	GetByID(id int) (*model.Verification, error)
	// Review 条件状态更新：WHERE status = 'PENDING'，返回是否迁移成功
	Review(id, reviewerID int, decision, notes string, at time.Time) (bool, error)
	LatestByFundraiser(fundraiserID int) (*model.Verification, error)
	ListPending(limit, offset int) ([]*model.Verification, error)
}
