package mysql

import (
	"database/sql"
	"time"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/ledger"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
)

type PayoutRepository struct {
	db *sql.DB
}

func NewPayoutRepository(db *sql.DB) *PayoutRepository {
	return &PayoutRepository{db}
}

const payoutColumns = `id, project_id, fundraiser_id, amount, status,
	reason, transfer_ref, requested_at, processed_at, transferred_at`

// Request 在单个事务内完成余额校验和申请插入：
// 锁定项目行后统计 REQUESTED/APPROVED/TRANSFERRED 三态占用额，
// 申请金额超出可用余额时返回 ErrInsufficientFunds
func (r *PayoutRepository) Request(projectID, fundraiserID int, amount float64) (*model.Payout, error) {
	util.Logger.Info("开始创建提现申请",
		zap.Int("project_id", projectID),
		zap.Int("fundraiser_id", fundraiserID),
		zap.Float64("amount", amount))

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "开始事务失败", err)
	}
	defer tx.Rollback()

	var collected float64
	err = tx.QueryRow(`SELECT collected_amount FROM projects WHERE id = ? FOR UPDATE`,
		projectID).Scan(&collected)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrResourceNotFound, "项目不存在")
		}
		util.Logger.Error("锁定项目行失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, errors.Wrap(errors.ErrDatabase, "锁定项目行失败", err)
	}

	var reserved float64
	err = tx.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM payouts
		WHERE project_id = ? AND status IN (?, ?, ?) FOR UPDATE`,
		projectID,
		model.PayoutStatusRequested,
		model.PayoutStatusApproved,
		model.PayoutStatusTransferred).Scan(&reserved)
	if err != nil {
		util.Logger.Error("统计占用金额失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, errors.Wrap(errors.ErrDatabase, "统计占用金额失败", err)
	}

	if amount > ledger.AvailablePayout(collected, reserved) {
		util.Logger.Warn("提现金额超出可用余额",
			zap.Int("project_id", projectID),
			zap.Float64("amount", amount),
			zap.Float64("collected", collected),
			zap.Float64("reserved", reserved))
		return nil, errors.New(errors.ErrInsufficientFunds, "提现金额超出可用余额")
	}

	now := time.Now()
	result, err := tx.Exec(`INSERT INTO payouts
		(project_id, fundraiser_id, amount, status, requested_at)
		VALUES (?, ?, ?, ?, ?)`,
		projectID, fundraiserID, amount, model.PayoutStatusRequested, now)
	if err != nil {
		util.Logger.Error("创建提现申请失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "创建提现申请失败", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取提现ID失败", err)
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
	}

	payout := &model.Payout{
		ID:           int(id),
		ProjectID:    projectID,
		FundraiserID: fundraiserID,
		Amount:       amount,
		Status:       model.PayoutStatusRequested,
		RequestedAt:  now,
	}

	util.Logger.Info("提现申请创建成功",
		zap.Int("payout_id", payout.ID),
		zap.Int("project_id", projectID))
	return payout, nil
}

func (r *PayoutRepository) GetByID(payoutID int) (*model.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = ?`
	p, err := scanPayoutRow(r.db.QueryRow(query, payoutID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查询提现申请失败", zap.Error(err), zap.Int("payout_id", payoutID))
		return nil, errors.Wrap(errors.ErrDatabase, "查询提现申请失败", err)
	}
	return p, nil
}

func scanPayoutRow(row rowScanner) (*model.Payout, error) {
	var p model.Payout
	var reason, transferRef sql.NullString
	var processedAt, transferredAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.FundraiserID,
		&p.Amount,
		&p.Status,
		&reason,
		&transferRef,
		&p.RequestedAt,
		&processedAt,
		&transferredAt)
	if err != nil {
		return nil, err
	}

	p.Reason = reason.String
	p.TransferRef = transferRef.String
	if processedAt.Valid {
		p.ProcessedAt = &processedAt.Time
	}
	if transferredAt.Valid {
		p.TransferredAt = &transferredAt.Time
	}
	return &p, nil
}

// Approve 批准前在同一事务内重新核算硬性不变量：
// 已批准与已打款之和加上本笔金额不得超过项目已筹金额。
// 申请已被并发处理时原样返回当前状态且 applied 为 false
func (r *PayoutRepository) Approve(payoutID int) (*model.Payout, bool, error) {
	util.Logger.Info("开始批准提现申请", zap.Int("payout_id", payoutID))

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return nil, false, errors.Wrap(errors.ErrDatabase, "开始事务失败", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = ? FOR UPDATE`
	p, err := scanPayoutRow(tx.QueryRow(query, payoutID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, errors.New(errors.ErrResourceNotFound, "提现申请不存在")
		}
		util.Logger.Error("锁定提现行失败", zap.Error(err), zap.Int("payout_id", payoutID))
		return nil, false, errors.Wrap(errors.ErrDatabase, "锁定提现行失败", err)
	}

	if p.Status != model.PayoutStatusRequested {
		util.Logger.Warn("提现申请已被处理",
			zap.Int("payout_id", payoutID),
			zap.String("status", p.Status))
		if err := tx.Commit(); err != nil {
			return nil, false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
		}
		return p, false, nil
	}

	var collected float64
	err = tx.QueryRow(`SELECT collected_amount FROM projects WHERE id = ? FOR UPDATE`,
		p.ProjectID).Scan(&collected)
	if err != nil {
		util.Logger.Error("锁定项目行失败", zap.Error(err), zap.Int("project_id", p.ProjectID))
		return nil, false, errors.Wrap(errors.ErrDatabase, "锁定项目行失败", err)
	}

	var committed float64
	err = tx.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM payouts
		WHERE project_id = ? AND status IN (?, ?) FOR UPDATE`,
		p.ProjectID,
		model.PayoutStatusApproved,
		model.PayoutStatusTransferred).Scan(&committed)
	if err != nil {
		util.Logger.Error("统计已批准金额失败", zap.Error(err), zap.Int("project_id", p.ProjectID))
		return nil, false, errors.Wrap(errors.ErrDatabase, "统计已批准金额失败", err)
	}

	if committed+p.Amount > collected {
		util.Logger.Warn("批准后将超出已筹金额",
			zap.Int("payout_id", payoutID),
			zap.Float64("committed", committed),
			zap.Float64("amount", p.Amount),
			zap.Float64("collected", collected))
		return nil, false, errors.New(errors.ErrInsufficientFunds, "批准后将超出项目已筹金额")
	}

	now := time.Now()
	_, err = tx.Exec(`UPDATE payouts SET status = ?, processed_at = ? WHERE id = ?`,
		model.PayoutStatusApproved, now, payoutID)
	if err != nil {
		util.Logger.Error("更新提现状态失败", zap.Error(err), zap.Int("payout_id", payoutID))
		return nil, false, errors.Wrap(errors.ErrDatabase, "更新提现状态失败", err)
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return nil, false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
	}

	p.Status = model.PayoutStatusApproved
	p.ProcessedAt = &now

	util.Logger.Info("提现申请批准成功", zap.Int("payout_id", payoutID))
	return p, true, nil
}

// Transition 以条件更新实现单步状态迁移，状态不匹配时返回 false。
// REJECTED/CANCELLED 记录原因，TRANSFERRED 记录打款凭证号
func (r *PayoutRepository) Transition(payoutID int, from, to, reason, transferRef string) (bool, error) {
	util.Logger.Info("开始更新提现状态",
		zap.Int("payout_id", payoutID),
		zap.String("from", from),
		zap.String("to", to))

	var result sql.Result
	var err error

	switch to {
	case model.PayoutStatusTransferred:
		result, err = r.db.Exec(`UPDATE payouts
			SET status = ?, transfer_ref = ?, transferred_at = NOW()
			WHERE id = ? AND status = ?`,
			to, transferRef, payoutID, from)
	case model.PayoutStatusRejected, model.PayoutStatusCancelled:
		result, err = r.db.Exec(`UPDATE payouts
			SET status = ?, reason = ?, processed_at = NOW()
			WHERE id = ? AND status = ?`,
			to, reason, payoutID, from)
	default:
		result, err = r.db.Exec(`UPDATE payouts SET status = ? WHERE id = ? AND status = ?`,
			to, payoutID, from)
	}
	if err != nil {
		util.Logger.Error("更新提现状态失败", zap.Error(err), zap.Int("payout_id", payoutID))
		return false, errors.Wrap(errors.ErrDatabase, "更新提现状态失败", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, "获取更新行数失败", err)
	}

	if affected == 0 {
		util.Logger.Warn("提现状态未变化，可能已被并发请求处理",
			zap.Int("payout_id", payoutID),
			zap.String("from", from),
			zap.String("to", to))
		return false, nil
	}

	util.Logger.Info("提现状态更新成功",
		zap.Int("payout_id", payoutID),
		zap.String("to", to))
	return true, nil
}

func (r *PayoutRepository) ListByFundraiser(fundraiserID, limit, offset int) ([]*model.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts
			  WHERE fundraiser_id = ? ORDER BY requested_at DESC LIMIT ? OFFSET ?`
	return r.listPayouts(query, fundraiserID, limit, offset)
}

func (r *PayoutRepository) ListPending(limit, offset int) ([]*model.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts
			  WHERE status = ? ORDER BY requested_at ASC LIMIT ? OFFSET ?`
	return r.listPayouts(query, model.PayoutStatusRequested, limit, offset)
}

func (r *PayoutRepository) listPayouts(query string, args ...interface{}) ([]*model.Payout, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		util.Logger.Error("查询提现列表失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询提现列表失败", err)
	}
	defer rows.Close()

	var payouts []*model.Payout
	for rows.Next() {
		p, err := scanPayoutRow(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "读取提现数据失败", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// Overview 汇总项目各状态提现金额，可用余额按三态占用计算
func (r *PayoutRepository) Overview(projectID int) (*model.PayoutOverview, error) {
	var collected float64
	err := r.db.QueryRow(`SELECT collected_amount FROM projects WHERE id = ?`,
		projectID).Scan(&collected)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrResourceNotFound, "项目不存在")
		}
		util.Logger.Error("查询项目失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, errors.Wrap(errors.ErrDatabase, "查询项目失败", err)
	}

	query := `SELECT
		COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0)
		FROM payouts WHERE project_id = ?`

	overview := &model.PayoutOverview{ProjectID: projectID, CollectedAmount: collected}
	err = r.db.QueryRow(query,
		model.PayoutStatusRequested,
		model.PayoutStatusApproved,
		model.PayoutStatusTransferred,
		projectID).Scan(
		&overview.RequestedAmount,
		&overview.ApprovedAmount,
		&overview.TransferredAmount)
	if err != nil {
		util.Logger.Error("统计提现金额失败", zap.Error(err), zap.Int("project_id", projectID))
		return nil, errors.Wrap(errors.ErrDatabase, "统计提现金额失败", err)
	}

	reserved := overview.RequestedAmount + overview.ApprovedAmount + overview.TransferredAmount
	overview.AvailableAmount = ledger.AvailablePayout(collected, reserved)
	return overview, nil
}
