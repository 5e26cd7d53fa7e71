package mysql

import (
	"database/sql"
	"time"

	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
)

type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db}
}

const verificationColumns = `id, fundraiser_id, doc_path, status, notes,
	reviewer_id, review_notes, created_at, reviewed_at`

func (r *VerificationRepository) Create(v *model.Verification) error {
	util.Logger.Info("开始创建资料审核记录",
		zap.Int("fundraiser_id", v.FundraiserID),
		zap.String("doc_path", v.DocPath))

	v.CreatedAt = time.Now()

	query := `INSERT INTO verifications (fundraiser_id, doc_path, status, notes, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query, v.FundraiserID, v.DocPath, v.Status, v.Notes, v.CreatedAt)
	if err != nil {
		util.Logger.Error("创建资料审核记录失败", zap.Error(err))
		return errors.Wrap(errors.ErrDatabase, "创建资料审核记录失败", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "获取审核记录ID失败", err)
	}

	v.ID = int(id)
	util.Logger.Info("资料审核记录创建成功", zap.Int("verification_id", v.ID))
	return nil
}

func (r *VerificationRepository) GetByID(verificationID int) (*model.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE id = ?`
	v, err := scanVerificationRow(r.db.QueryRow(query, verificationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查询审核记录失败", zap.Error(err), zap.Int("verification_id", verificationID))
		return nil, errors.Wrap(errors.ErrDatabase, "查询审核记录失败", err)
	}
	return v, nil
}

func scanVerificationRow(row rowScanner) (*model.Verification, error) {
	var v model.Verification
	var notes, reviewNotes sql.NullString
	var reviewerID sql.NullInt64
	var reviewedAt sql.NullTime

	err := row.Scan(
		&v.ID,
		&v.FundraiserID,
		&v.DocPath,
		&v.Status,
		&notes,
		&reviewerID,
		&reviewNotes,
		&v.CreatedAt,
		&reviewedAt)
	if err != nil {
		return nil, err
	}

	v.Notes = notes.String
	v.ReviewNotes = reviewNotes.String
	if reviewerID.Valid {
		id := int(reviewerID.Int64)
		v.ReviewerID = &id
	}
	if reviewedAt.Valid {
		v.ReviewedAt = &reviewedAt.Time
	}
	return &v, nil
}

// Review 条件更新：仅 PENDING 记录可被裁决，状态不匹配时返回 false。
// 通过时在同一事务内为募捐人写入 verified_at，
// 不存在审核已通过但用户未认证的中间状态
func (r *VerificationRepository) Review(verificationID, reviewerID int, decision, notes string, at time.Time) (bool, error) {
	util.Logger.Info("开始审核资料",
		zap.Int("verification_id", verificationID),
		zap.String("decision", decision))

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return false, errors.Wrap(errors.ErrDatabase, "开始事务失败", err)
	}
	defer tx.Rollback()

	query := `UPDATE verifications
			  SET status = ?, reviewer_id = ?, review_notes = ?, reviewed_at = ?
			  WHERE id = ? AND status = ?`

	result, err := tx.Exec(query, decision, reviewerID, notes, at,
		verificationID, model.VerificationStatusPending)
	if err != nil {
		util.Logger.Error("审核资料失败", zap.Error(err), zap.Int("verification_id", verificationID))
		return false, errors.Wrap(errors.ErrDatabase, "审核资料失败", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, "获取更新行数失败", err)
	}

	if affected == 0 {
		util.Logger.Warn("审核记录未变化，可能已被处理",
			zap.Int("verification_id", verificationID))
		if err := tx.Commit(); err != nil {
			return false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
		}
		return false, nil
	}

	if decision == model.VerificationStatusApproved {
		_, err = tx.Exec(`UPDATE users u
			JOIN verifications v ON u.id = v.fundraiser_id
			SET u.verified_at = ?
			WHERE v.id = ?`, at, verificationID)
		if err != nil {
			util.Logger.Error("标记募捐人已认证失败", zap.Error(err),
				zap.Int("verification_id", verificationID))
			return false, errors.Wrap(errors.ErrDatabase, "标记募捐人已认证失败", err)
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return false, errors.Wrap(errors.ErrDatabase, "提交事务失败", err)
	}

	util.Logger.Info("资料审核完成",
		zap.Int("verification_id", verificationID),
		zap.String("decision", decision))
	return true, nil
}

func (r *VerificationRepository) LatestByFundraiser(fundraiserID int) (*model.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications
			  WHERE fundraiser_id = ? ORDER BY created_at DESC LIMIT 1`
	v, err := scanVerificationRow(r.db.QueryRow(query, fundraiserID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查询最新审核记录失败", zap.Error(err), zap.Int("fundraiser_id", fundraiserID))
		return nil, errors.Wrap(errors.ErrDatabase, "查询最新审核记录失败", err)
	}
	return v, nil
}

func (r *VerificationRepository) ListPending(limit, offset int) ([]*model.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications
			  WHERE status = ? ORDER BY created_at ASC LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, model.VerificationStatusPending, limit, offset)
	if err != nil {
		util.Logger.Error("查询待审核列表失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询待审核列表失败", err)
	}
	defer rows.Close()

	var verifications []*model.Verification
	for rows.Next() {
		v, err := scanVerificationRow(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "读取审核数据失败", err)
		}
		verifications = append(verifications, v)
	}
	return verifications, rows.Err()
}
