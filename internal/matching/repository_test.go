package matching

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCreateDuplicatePair(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO matches")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &Match{ID: uuid.New(), Member1ID: "a", Member2ID: "b", Stage: StagePending})
	assert.ErrorIs(t, err, ErrMatchExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingMatch(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE id = $1")).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSaveMatchVersionConflictRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	m := &Match{ID: uuid.New(), Stage: StageAcceptedByOne, Version: 3, UpdatedAt: time.Now()}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("version = version + 1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RunInTx(context.Background(), func(tx TxStore) error {
		return tx.SaveMatch(context.Background(), m)
	})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.Equal(t, 3, m.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxCommits(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO decline_analytics")).
		WithArgs("m1", "2026-05", "unspecified", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RunInTx(context.Background(), func(tx TxStore) error {
		return tx.RecordDecline(context.Background(), Decline{MemberID: "m1", At: at})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDeclineIncrementsCounters(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO decline_analytics") + `(?s).*` +
		regexp.QuoteMeta("VALUES ($1, 1, jsonb_build_object($2::text, 1), jsonb_build_object($3::text, 1), $4)") + `.*` +
		regexp.QuoteMeta("ON CONFLICT (member_id) DO UPDATE SET") + `.*` +
		regexp.QuoteMeta("total_declines = decline_analytics.total_declines + 1") + `.*` +
		regexp.QuoteMeta("COALESCE((decline_analytics.monthly_declines->>$2::text)::int, 0) + 1") + `.*` +
		regexp.QuoteMeta("COALESCE((decline_analytics.reasons->>$3::text)::int, 0) + 1") + `.*` +
		regexp.QuoteMeta("last_declined_at = $4")).
		WithArgs("eve", "2026-03", "not ready", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RunInTx(context.Background(), func(tx TxStore) error {
		return tx.RecordDecline(context.Background(), Decline{MemberID: "eve", Reason: "not ready", At: at})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeclineAnalyticsDefault(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM decline_analytics")).WithArgs("m1").WillReturnError(sql.ErrNoRows)

	a, err := repo.GetDeclineAnalytics(context.Background(), "m1")
	require.NoError(t, err)
	assert.Zero(t, a.TotalDeclines)
	assert.NotNil(t, a.MonthlyDeclines)
}
