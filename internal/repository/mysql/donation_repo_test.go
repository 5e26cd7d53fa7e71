package mysql

import (
	"regexp"
	"testing"
	"time"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func donationRows(status string, paidAt interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "external_id", "donator_name", "donator_email",
		"amount", "status", "created_at", "paid_at",
	}).AddRow(1, 5, "DON-5-abc", "张三", "zhang@example.com",
		150000.0, status, time.Now(), paidAt)
}

// TestDonationCompleteUpdatesProjectInSameTx 测试捐款完成与项目金额累加
// 落在同一事务内
func TestDonationCompleteUpdatesProjectInSameTx(t *testing.T) {
	db, dbmock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := NewDonationRepository(db)

	paidAt := time.Now()
	dbmock.ExpectBegin()
	dbmock.ExpectQuery(regexp.QuoteMeta("FROM donations WHERE external_id = ? FOR UPDATE")).
		WithArgs("DON-5-abc").
		WillReturnRows(donationRows(model.DonationStatusPending, nil))
	dbmock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET status = ?, paid_at = ? WHERE id = ?")).
		WithArgs(model.DonationStatusCompleted, paidAt, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectExec(regexp.QuoteMeta("SET collected_amount = collected_amount + ?")).
		WithArgs(150000.0, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectCommit()

	donation, applied, err := repo.Complete("DON-5-abc", paidAt)
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, model.DonationStatusCompleted, donation.Status)
	assert.NoError(t, dbmock.ExpectationsWereMet())
}

// TestDonationCompleteDuplicateIsNoOp 测试重复通知短路：
// 已处于终态的捐款原样返回，不再更新项目金额
func TestDonationCompleteDuplicateIsNoOp(t *testing.T) {
	db, dbmock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := NewDonationRepository(db)

	dbmock.ExpectBegin()
	dbmock.ExpectQuery(regexp.QuoteMeta("FROM donations WHERE external_id = ? FOR UPDATE")).
		WithArgs("DON-5-abc").
		WillReturnRows(donationRows(model.DonationStatusCompleted, time.Now()))
	dbmock.ExpectCommit()

	donation, applied, err := repo.Complete("DON-5-abc", time.Now())
	assert.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, model.DonationStatusCompleted, donation.Status)
	// 未出现第二次 UPDATE
	assert.NoError(t, dbmock.ExpectationsWereMet())
}

// TestDonationFailSkipsProjectUpdate 测试失败终态不触碰项目金额
func TestDonationFailSkipsProjectUpdate(t *testing.T) {
	db, dbmock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := NewDonationRepository(db)

	dbmock.ExpectBegin()
	dbmock.ExpectQuery(regexp.QuoteMeta("FROM donations WHERE external_id = ? FOR UPDATE")).
		WithArgs("DON-5-abc").
		WillReturnRows(donationRows(model.DonationStatusPending, nil))
	dbmock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET status = ? WHERE id = ?")).
		WithArgs(model.DonationStatusFailed, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectCommit()

	donation, applied, err := repo.Fail("DON-5-abc")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, model.DonationStatusFailed, donation.Status)
	assert.NoError(t, dbmock.ExpectationsWereMet())
}

// TestDonationCompleteDeadlockIsRetryable 测试包装后的死锁错误
// 仍被重试判定识别
func TestDonationCompleteDeadlockIsRetryable(t *testing.T) {
	db, dbmock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := NewDonationRepository(db)

	dbmock.ExpectBegin()
	dbmock.ExpectQuery(regexp.QuoteMeta("FROM donations WHERE external_id = ? FOR UPDATE")).
		WithArgs("DON-5-abc").
		WillReturnRows(donationRows(model.DonationStatusPending, nil))
	dbmock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET status = ?, paid_at = ? WHERE id = ?")).
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	dbmock.ExpectRollback()

	_, _, err = repo.Complete("DON-5-abc", time.Now())
	assert.Error(t, err)
	assert.True(t, common.IsRetryable(err))
}
