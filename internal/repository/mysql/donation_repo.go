package mysql

import (
	"database/sql"
	"time"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/util"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db}
}

const donationColumns = `id, project_id, external_id, donator_name, donator_email,
	amount, status, created_at, paid_at`

func (r *DonationRepository) Create(donation *model.Donation) error {
	util.Logger.Info("开始创建捐款记录",
		zap.Int("project_id", donation.ProjectID),
		zap.String("external_id", donation.ExternalID),
		zap.Float64("amount", donation.Amount))

	donation.CreatedAt = time.Now()

	query := `INSERT INTO donations
			  (project_id, external_id, donator_name, donator_email, amount, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		donation.ProjectID,
		donation.ExternalID,
		donation.DonatorName,
		donation.DonatorEmail,
		donation.Amount,
		donation.Status,
		donation.CreatedAt)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == mysqlErrDupEntry {
			util.Logger.Warn("外部订单号重复", zap.String("external_id", donation.ExternalID))
			return errors.Wrap(errors.ErrResourceConflict, "外部订单号已存在", err)
		}
		util.Logger.Error("创建捐款记录失败", zap.Error(err))
		return errors.Wrap(errors.ErrDatabase, "创建捐款记录失败", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "获取捐款ID失败", err)
	}

	donation.ID = int(id)
	util.Logger.Info("捐款记录创建成功",
		zap.Int("donation_id", donation.ID),
		zap.String("external_id", donation.ExternalID))
	return nil
}

func (r *DonationRepository) GetByExternalID(externalID string) (*model.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE external_id = ?`
	return scanDonation(r.db.QueryRow(query, externalID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDonationRow(row rowScanner) (*model.Donation, error) {
	var d model.Donation
	var donatorName, donatorEmail sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.ProjectID,
		&d.ExternalID,
		&donatorName,
		&donatorEmail,
		&d.Amount,
		&d.Status,
		&d.CreatedAt,
		&paidAt)
	if err != nil {
		return nil, err
	}

	d.DonatorName = donatorName.String
	d.DonatorEmail = donatorEmail.String
	if paidAt.Valid {
		d.PaidAt = &paidAt.Time
	}
	return &d, nil
}

func scanDonation(row *sql.Row) (*model.Donation, error) {
	d, err := scanDonationRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查询捐款失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐款失败", err)
	}
	return d, nil
}

// Complete 对账的原子提交单元：锁行读取当前状态，只有 PENDING -> COMPLETED
// 是活跃迁移，并且与项目金额累加在同一事务内落盘。
// 重复投递的 webhook 在第二次进来时读到终态，原样返回不再产生副作用
func (r *DonationRepository) Complete(externalID string, paidAt time.Time) (*model.Donation, bool, error) {
	return r.finalize(externalID, model.DonationStatusCompleted, paidAt)
}

// Fail 同 Complete，目标状态 FAILED，不累加项目金额
func (r *DonationRepository) Fail(externalID string) (*model.Donation, bool, error) {
	return r.finalize(externalID, model.DonationStatusFailed, time.Time{})
}

func (r *DonationRepository) finalize(externalID, target string, paidAt time.Time) (*model.Donation, bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return nil, false, errors.Wrap(errors.ErrDatabase, "开始事务失败", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + donationColumns + ` FROM donations WHERE external_id = ? FOR UPDATE`
	d, err := scanDonationRow(tx.QueryRow(query, externalID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, errors.New(errors.ErrResourceNotFound, "捐款不存在")
		}
		util.Logger.Error("锁定捐款行失败", zap.Error(err), zap.String("external_id", externalID))
		return nil, false, errors.Wrap(errors.ErrDatabase, "锁定捐款行失败", err)
	}

	// 终态吸收重复通知
	if d.Status != model.DonationStatusPending {
		util.Logger.Info("捐款已处于终态，忽略本次对账",
			zap.String("external_id", externalID),
			zap.String("status", d.Status))
		if err := tx.Commit(); err != nil {
			return nil, false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
		}
		return d, false, nil
	}

	if target == model.DonationStatusCompleted {
		_, err = tx.Exec(`UPDATE donations SET status = ?, paid_at = ? WHERE id = ?`,
			target, paidAt, d.ID)
		if err == nil {
			_, err = tx.Exec(`UPDATE projects
				SET collected_amount = collected_amount + ?, updated_at = NOW()
				WHERE id = ?`, d.Amount, d.ProjectID)
		}
	} else {
		_, err = tx.Exec(`UPDATE donations SET status = ? WHERE id = ?`, target, d.ID)
	}
	if err != nil {
		util.Logger.Error("更新捐款状态失败", zap.Error(err), zap.String("external_id", externalID))
		return nil, false, errors.Wrap(errors.ErrDatabase, "更新捐款状态失败", err)
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return nil, false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
	}

	d.Status = target
	if target == model.DonationStatusCompleted {
		d.PaidAt = &paidAt
	}

	util.Logger.Info("捐款对账完成",
		zap.String("external_id", externalID),
		zap.String("status", d.Status),
		zap.Float64("amount", d.Amount))
	return d, true, nil
}

func (r *DonationRepository) ListPublic(projectID, limit, offset int) ([]*model.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE status = ?`
	args := []interface{}{model.DonationStatusCompleted}
	if projectID > 0 {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY paid_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		util.Logger.Error("查询捐款列表失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐款列表失败", err)
	}
	defer rows.Close()

	var donations []*model.Donation
	for rows.Next() {
		d, err := scanDonationRow(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "读取捐款数据失败", err)
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

func (r *DonationRepository) SumCompletedByProject(projectID int) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM donations
			  WHERE project_id = ? AND status = ?`

	var total float64
	err := r.db.QueryRow(query, projectID, model.DonationStatusCompleted).Scan(&total)
	if err != nil {
		util.Logger.Error("统计捐款总额失败", zap.Error(err), zap.Int("project_id", projectID))
		return 0, errors.Wrap(errors.ErrDatabase, "统计捐款总额失败", err)
	}
	return total, nil
}

// RecalculateCollected 全量重算各项目 collected_amount，
// 作为漂移修复的校正手段而非主路径
func (r *DonationRepository) RecalculateCollected() (int64, error) {
	util.Logger.Info("开始重算项目已筹金额")

	query := `UPDATE projects p
			  LEFT JOIN (
				  SELECT project_id, SUM(amount) AS total
				  FROM donations
				  WHERE status = ?
				  GROUP BY project_id
			  ) d ON p.id = d.project_id
			  SET p.collected_amount = COALESCE(d.total, 0), p.updated_at = NOW()`

	result, err := r.db.Exec(query, model.DonationStatusCompleted)
	if err != nil {
		util.Logger.Error("重算项目已筹金额失败", zap.Error(err))
		return 0, errors.Wrap(errors.ErrDatabase, "重算项目已筹金额失败", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "获取更新行数失败", err)
	}

	util.Logger.Info("项目已筹金额重算完成", zap.Int64("updated_projects", affected))
	return affected, nil
}
