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

// MySQL 唯一键冲突错误码
const mysqlErrDupEntry = 1062

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) Create(user *model.User) error {
	util.Logger.Info("开始创建用户",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	user.CreatedAt = time.Now()

	query := `INSERT INTO users (user_name, email, password_hash, role, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == mysqlErrDupEntry {
			util.Logger.Warn("邮箱已被注册", zap.String("email", user.Email))
			return errors.Wrap(errors.ErrResourceConflict, "邮箱已被注册", err)
		}
		util.Logger.Error("创建用户失败", zap.Error(err))
		return errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取用户ID失败", zap.Error(err))
		return errors.Wrap(errors.ErrDatabase, "获取用户ID失败", err)
	}

	user.ID = int(id)
	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

func (r *UserRepository) FindByID(id int) (*model.User, error) {
	query := `SELECT id, user_name, email, password_hash, role, verified_at, created_at
			  FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRow(query, id))
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	query := `SELECT id, user_name, email, password_hash, role, verified_at, created_at
			  FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRow(query, email))
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	var verifiedAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&verifiedAt,
		&user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		util.Logger.Error("查询用户失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}

	if verifiedAt.Valid {
		user.VerifiedAt = &verifiedAt.Time
	}
	return &user, nil
}
