package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"instantpay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	debitSQL    = `UPDATE "accounts" SET "balance"=balance - \$1.* WHERE .*id = \$\d+ AND balance >= \$\d+`
	creditSQL   = `UPDATE "accounts" SET "balance"=balance \+ \$1.* WHERE .*id = \$\d+`
	countSQL    = `SELECT count\(\*\) FROM "accounts" WHERE id = \$1`
	insertSQL   = `INSERT INTO "transfers"`
	accountSQL  = `SELECT \* FROM "accounts" WHERE id = \$1`
	transferSQL = `SELECT \* FROM "transfers" WHERE idempotency_key = \$1`
)

var errConnReset = errors.New("connection reset by peer")

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, sqlMock
}

func newTransfer(sender, recipient string) *models.Transfer {
	return &models.Transfer{
		ID:             "t-1",
		SenderID:       sender,
		RecipientID:    recipient,
		Amount:         decimal.RequireFromString("10.00"),
		IdempotencyKey: "k-1",
	}
}

func affected(n int64) driver.Result {
	return sqlmock.NewResult(0, n)
}

func TestAccountRepository_AtomicTransfer(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		recipient string
		expect    func(sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name:      "debits then credits when the sender sorts first",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnResult(affected(1))
				m.ExpectExec(creditSQL).WillReturnResult(affected(1))
				m.ExpectExec(insertSQL).WillReturnResult(affected(1))
				m.ExpectCommit()
			},
		},
		{
			name:      "credits then debits when the recipient sorts first",
			sender:    "bob",
			recipient: "alice",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(creditSQL).WillReturnResult(affected(1))
				m.ExpectExec(debitSQL).WillReturnResult(affected(1))
				m.ExpectExec(insertSQL).WillReturnResult(affected(1))
				m.ExpectCommit()
			},
		},
		{
			name:      "insufficient balance",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnResult(affected(0))
				m.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				m.ExpectRollback()
			},
			wantErr: ErrInsufficientBalance,
		},
		{
			name:      "sender missing",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnResult(affected(0))
				m.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				m.ExpectRollback()
			},
			wantErr: ErrSenderNotFound,
		},
		{
			name:      "recipient missing after debit",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnResult(affected(1))
				m.ExpectExec(creditSQL).WillReturnResult(affected(0))
				m.ExpectRollback()
			},
			wantErr: ErrRecipientNotFound,
		},
		{
			name:      "recipient missing before debit",
			sender:    "bob",
			recipient: "alice",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(creditSQL).WillReturnResult(affected(0))
				m.ExpectRollback()
			},
			wantErr: ErrRecipientNotFound,
		},
		{
			name:      "idempotency key already recorded",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnResult(affected(1))
				m.ExpectExec(creditSQL).WillReturnResult(affected(1))
				m.ExpectExec(insertSQL).WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
				m.ExpectRollback()
			},
			wantErr: ErrDuplicateTransfer,
		},
		{
			name:      "debit fails in the driver",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnError(errConnReset)
				m.ExpectRollback()
			},
			wantErr: errConnReset,
		},
		{
			name:      "commit fails",
			sender:    "alice",
			recipient: "bob",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(debitSQL).WillReturnResult(affected(1))
				m.ExpectExec(creditSQL).WillReturnResult(affected(1))
				m.ExpectExec(insertSQL).WillReturnResult(affected(1))
				m.ExpectCommit().WillReturnError(errConnReset)
			},
			wantErr: errConnReset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sqlMock := newMockDB(t)
			tt.expect(sqlMock)

			err := NewAccountRepository(db).AtomicTransfer(context.Background(), newTransfer(tt.sender, tt.recipient))

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_AtomicTransferRejectsInvalidInput(t *testing.T) {
	db, sqlMock := newMockDB(t)
	record := newTransfer("alice", "bob")
	record.Amount = decimal.Zero

	err := NewAccountRepository(db).AtomicTransfer(context.Background(), record)

	assert.ErrorIs(t, err, ErrInvalidTransfer)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, sqlMock := newMockDB(t)
		sqlMock.ExpectQuery(accountSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("alice", "12.50"))

		account, err := NewAccountRepository(db).GetByID(context.Background(), "alice")

		require.NoError(t, err)
		assert.Equal(t, "alice", account.ID)
		assert.True(t, account.Balance.Equal(decimal.RequireFromString("12.5")))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, sqlMock := newMockDB(t)
		sqlMock.ExpectQuery(accountSQL).WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}))

		_, err := NewAccountRepository(db).GetByID(context.Background(), "ghost")

		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		db, sqlMock := newMockDB(t)
		sqlMock.ExpectQuery(accountSQL).WillReturnError(errConnReset)

		_, err := NewAccountRepository(db).GetByID(context.Background(), "alice")

		assert.ErrorIs(t, err, errConnReset)
		assert.NotErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestTransferRepository_FindByIdempotencyKey(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, sqlMock := newMockDB(t)
		sqlMock.ExpectQuery(transferSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "amount", "idempotency_key"}).
				AddRow("t-1", "alice", "bob", "10.00", "k-1"))

		record, err := NewTransferRepository(db).FindByIdempotencyKey(context.Background(), "k-1")

		require.NoError(t, err)
		assert.Equal(t, "alice", record.SenderID)
		assert.Equal(t, "bob", record.RecipientID)
		assert.True(t, record.Amount.Equal(decimal.NewFromInt(10)))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, sqlMock := newMockDB(t)
		sqlMock.ExpectQuery(transferSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewTransferRepository(db).FindByIdempotencyKey(context.Background(), "k-1")

		assert.ErrorIs(t, err, ErrTransferNotFound)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}
