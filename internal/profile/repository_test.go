package profile

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "email", "phone", "display_name", "gender", "age", "location", "profile_photo_url",
	"role", "questionnaire_answers", "questionnaire_completed", "push_token", "archived_at",
	"created_at", "updated_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"u1", "ada@example.com", nil, "Ada", "female", 31, "London", nil,
			"member", []byte(`{"values_children":"I want children"}`), true, "tok", nil,
			now, now,
		))

	p, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, 31, *p.Age)
	assert.Equal(t, "I want children", p.QuestionnaireAnswers["values_children"])
	assert.Equal(t, "tok", p.Contact().PushToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestMergeAnswers(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	completed := true

	mock.ExpectQuery(regexp.QuoteMeta(`SET questionnaire_answers = questionnaire_answers || $2::jsonb`)).
		WithArgs("u1", sqlmock.AnyArg(), &completed).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"u1", nil, nil, "Ada", "female", nil, nil, nil,
			"member", []byte(`{"lifestyle_smoking":"Never"}`), true, nil, nil,
			now, now,
		))

	p, err := repo.MergeAnswers(context.Background(), "u1", Answers{"lifestyle_smoking": "Never"}, &completed)
	require.NoError(t, err)
	assert.True(t, p.QuestionnaireCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET archived_at`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Archive(context.Background(), "ghost"), ErrProfileNotFound)
}

func TestAnswersScan(t *testing.T) {
	var a Answers
	require.NoError(t, a.Scan([]byte(`{"k":["a","b"]}`)))
	assert.Equal(t, []interface{}{"a", "b"}, a["k"])

	require.NoError(t, a.Scan(nil))
	assert.Empty(t, a)

	assert.Error(t, a.Scan(42))
}
