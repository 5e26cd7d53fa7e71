package interfaces

import "crowdfund-backend/internal/model"

type ProjectRepository interface {
	Create(project *model.Project) error
	GetByID(id int) (*model.Project, error)
	ListByFundraiser(fundraiserID, limit, offset int) ([]*model.Project, error)
	ListActive(limit, offset int) ([]*model.Project, error)
	ListPending(limit, offset int) ([]*model.Project, error)
	// Update 仅更新所有者自己的项目基础字段，返回是否有行被更新
	Update(project *model.Project) (bool, error)
	// UpdateStatusFrom 条件状态更新：WHERE status = from，返回是否迁移成功。
	// 并发的冲突迁移在这里串行化，落败方得到 false
	UpdateStatusFrom(projectID int, from, to, rejectReason string) (bool, error)
}
