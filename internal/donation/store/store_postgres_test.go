package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	"bloodledger/pkg/platform/sentinel"
)

var (
	lockQuery   = regexp.QuoteMeta(`SELECT live_until FROM ledger_instance WHERE id = 1 FOR UPDATE`)
	selectQuery = regexp.QuoteMeta(`SELECT value FROM ledger_entries WHERE key = $1`)
	upsertQuery = regexp.QuoteMeta(`INSERT INTO ledger_entries`)
	extendQuery = regexp.QuoteMeta(`UPDATE ledger_instance SET live_until = $1 WHERE id = 1`)
)

type PostgresLedgerSuite struct {
	suite.Suite
	mock   sqlmock.Sqlmock
	ledger *Postgres
	ctx    context.Context
}

func TestPostgresLedgerSuite(t *testing.T) {
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })
	s.mock = mock
	s.ledger = NewPostgres(db)
	s.ctx = context.Background()
}

func (s *PostgresLedgerSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresLedgerSuite) TestCommit() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"live_until"}).AddRow(int64(0)))
	s.mock.ExpectQuery(selectQuery).WithArgs(counterKey).WillReturnRows(sqlmock.NewRows([]string{"value"}))
	s.mock.ExpectExec(upsertQuery).WithArgs(counterKey, "1").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(extendQuery).WithArgs(int64(1000 + 25_000)).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.ledger.RunInTx(s.ctx, func(st ports.Store) error {
		count, err := st.LoadCounter(s.ctx)
		s.Require().NoError(err)
		s.Require().NoError(st.SaveCounter(s.ctx, count+1))
		return st.ExtendRetention(s.ctx, models.DefaultRetention(), 1000)
	})
	s.NoError(err)
}

func (s *PostgresLedgerSuite) TestRetentionNotDueSkipsUpdate() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"live_until"}).AddRow(int64(90_000)))
	s.mock.ExpectCommit()

	err := s.ledger.RunInTx(s.ctx, func(st ports.Store) error {
		return st.ExtendRetention(s.ctx, models.DefaultRetention(), 1000)
	})
	s.NoError(err)
}

func (s *PostgresLedgerSuite) TestRollbackOnError() {
	boom := errors.New("abort")
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"live_until"}).AddRow(int64(0)))
	s.mock.ExpectExec(upsertQuery).WithArgs(statsKey, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectRollback()

	err := s.ledger.RunInTx(s.ctx, func(st ports.Store) error {
		s.Require().NoError(st.SaveStats(s.ctx, models.DonationStats{Total: 1, Active: 1}))
		return boom
	})
	s.ErrorIs(err, boom)
}

func (s *PostgresLedgerSuite) TestLockFailuresAreConflicts() {
	for _, code := range []pq.ErrorCode{"40001", "40P01"} {
		s.Run(string(code), func() {
			s.mock.ExpectBegin()
			s.mock.ExpectQuery(lockQuery).WillReturnError(&pq.Error{Code: code, Message: "could not serialize"})
			s.mock.ExpectRollback()

			err := s.ledger.RunInTx(s.ctx, func(ports.Store) error {
				s.Fail("fn must not run without the instance lock")
				return nil
			})
			s.ErrorIs(err, sentinel.ErrConflict)
		})
	}
}

func (s *PostgresLedgerSuite) TestViewDecodesRecord() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(selectQuery).WithArgs(donationKey(1)).WillReturnRows(
		sqlmock.NewRows([]string{"value"}).AddRow(`{"id":1,"donor":"GDONOR","blood_type":"O+","created_at":100,"storage_temp":4,"status":"active"}`),
	)
	s.mock.ExpectQuery(selectQuery).WithArgs(donationKey(2)).WillReturnRows(sqlmock.NewRows([]string{"value"}))
	s.mock.ExpectRollback()

	err := s.ledger.View(s.ctx, func(st ports.Store) error {
		record, err := st.FindRecord(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal(*testRecord(1), *record)

		_, err = st.FindRecord(s.ctx, 2)
		s.ErrorIs(err, sentinel.ErrNotFound)

		s.ErrorIs(st.SaveCounter(s.ctx, 1), sentinel.ErrReadOnly)
		return nil
	})
	s.NoError(err)
}
