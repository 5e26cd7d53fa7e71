package mysql

import (
	"database/sql"
	"time"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db}
}

const projectColumns = `id, fundraiser_id, title, description, target_amount,
	collected_amount, status, reject_reason, created_at, updated_at`

func (r *ProjectRepository) Create(project *model.Project) error {
	util.Logger.Info("开始创建项目",
		zap.Int("fundraiser_id", project.FundraiserID),
		zap.String("title", project.Title))

	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt

	query := `INSERT INTO projects
			  (fundraiser_id, title, description, target_amount, collected_amount, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, 0, ?, ?, ?)`

	result, err := r.db.Exec(query,
		project.FundraiserID,
		project.Title,
		project.Description,
		project.TargetAmount,
		project.Status,
		project.CreatedAt,
		project.UpdatedAt)
	if err != nil {
		util.Logger.Error("创建项目失败", zap.Error(err))
		return errors.Wrap(errors.ErrDatabase, "创建项目失败", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取项目ID失败", zap.Error(err))
		return errors.Wrap(errors.ErrDatabase, "获取项目ID失败", err)
	}

	project.ID = int(id)
	util.Logger.Info("项目创建成功", zap.Int("project_id", project.ID))
	return nil
}

func (r *ProjectRepository) GetByID(id int) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(r.db.QueryRow(query, id))
}

func scanProject(row *sql.Row) (*model.Project, error) {
	var p model.Project
	var rejectReason sql.NullString

	err := row.Scan(
		&p.ID,
		&p.FundraiserID,
		&p.Title,
		&p.Description,
		&p.TargetAmount,
		&p.CollectedAmount,
		&p.Status,
		&rejectReason,
		&p.CreatedAt,
		&p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查询项目失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询项目失败", err)
	}

	p.RejectReason = rejectReason.String
	return &p, nil
}

func (r *ProjectRepository) listProjects(query string, args ...interface{}) ([]*model.Project, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		util.Logger.Error("查询项目列表失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询项目列表失败", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		var p model.Project
		var rejectReason sql.NullString
		err := rows.Scan(
			&p.ID,
			&p.FundraiserID,
			&p.Title,
			&p.Description,
			&p.TargetAmount,
			&p.CollectedAmount,
			&p.Status,
			&rejectReason,
			&p.CreatedAt,
			&p.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "读取项目数据失败", err)
		}
		p.RejectReason = rejectReason.String
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) ListByFundraiser(fundraiserID, limit, offset int) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
			  WHERE fundraiser_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.listProjects(query, fundraiserID, limit, offset)
}

func (r *ProjectRepository) ListActive(limit, offset int) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
			  WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.listProjects(query, model.ProjectStatusActive, limit, offset)
}

func (r *ProjectRepository) ListPending(limit, offset int) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects
			  WHERE status = ? ORDER BY created_at ASC LIMIT ? OFFSET ?`
	return r.listProjects(query, model.ProjectStatusPending, limit, offset)
}

// Update 仅允许所有者更新自己项目的基础字段
func (r *ProjectRepository) Update(project *model.Project) (bool, error) {
	query := `UPDATE projects
			  SET title = ?, description = ?, target_amount = ?, updated_at = NOW()
			  WHERE id = ? AND fundraiser_id = ?`

	result, err := r.db.Exec(query,
		project.Title,
		project.Description,
		project.TargetAmount,
		project.ID,
		project.FundraiserID)
	if err != nil {
		util.Logger.Error("更新项目失败", zap.Error(err), zap.Int("project_id", project.ID))
		return false, errors.Wrap(errors.ErrDatabase, "更新项目失败", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, "获取更新行数失败", err)
	}
	return affected > 0, nil
}

// UpdateStatusFrom 条件状态更新，WHERE status = from 保证并发迁移只有一个成功
func (r *ProjectRepository) UpdateStatusFrom(projectID int, from, to, rejectReason string) (bool, error) {
	util.Logger.Info("开始迁移项目状态",
		zap.Int("project_id", projectID),
		zap.String("from", from),
		zap.String("to", to))

	var result sql.Result
	var err error
	if to == model.ProjectStatusRejected {
		query := `UPDATE projects SET status = ?, reject_reason = ?, updated_at = NOW()
				  WHERE id = ? AND status = ?`
		result, err = r.db.Exec(query, to, rejectReason, projectID, from)
	} else {
		query := `UPDATE projects SET status = ?, updated_at = NOW()
				  WHERE id = ? AND status = ?`
		result, err = r.db.Exec(query, to, projectID, from)
	}
	if err != nil {
		util.Logger.Error("迁移项目状态失败", zap.Error(err), zap.Int("project_id", projectID))
		return false, errors.Wrap(errors.ErrDatabase, "迁移项目状态失败", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, "获取更新行数失败", err)
	}

	if affected == 0 {
		util.Logger.Warn("项目状态迁移未命中，可能已被并发请求处理",
			zap.Int("project_id", projectID),
			zap.String("expected_status", from))
		return false, nil
	}

	util.Logger.Info("项目状态迁移成功",
		zap.Int("project_id", projectID),
		zap.String("new_status", to))
	return true, nil
}
