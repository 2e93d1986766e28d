package notification

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestInsertSkipsExisting(t *testing.T) {
	repo, mock := newMockRepo(t)
	match := uuid.New()
	a := New(CollectionMember, "m1", match, TypeMatchProposal, "", "a", nil)
	b := New(CollectionMember, "m2", match, TypeMatchProposal, "", "b", nil)

	insert := regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")
	mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 0))

	written, err := repo.Insert(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimQueued(t *testing.T) {
	repo, mock := newMockRepo(t)
	id, match := uuid.New(), uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "collection", "recipient_id", "match_id", "type", "status", "message", "payload",
		"delivery_status", "attempts", "last_error", "delivered_channels", "delivered_at", "viewed_at", "read_at", "created_at",
	}).AddRow(id.String(), "vettly2Notifications", "m1", match.String(), "match_proposal", "pending", "hi", []byte(`{}`),
		"sending", 1, nil, []byte(`{push}`), nil, nil, nil, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).WithArgs(10).WillReturnRows(rows)

	out, err := repo.ClaimQueued(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, id, out[0].ID)
	assert.Equal(t, 1, out[0].Attempts)
	assert.Equal(t, DeliverySending, out[0].DeliveryStatus)
	assert.True(t, out[0].DeliveredOn(ChannelPush))
	assert.False(t, out[0].DeliveredOn(ChannelEmail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkChannelDelivered(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("SET delivered_channels = array_append(delivered_channels, $2)")).
		WithArgs(id, "email").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkChannelDelivered(context.Background(), id, ChannelEmail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE notifications").WithArgs(id, "m1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), id, "m1", StatusRead)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedFinal(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE notifications SET delivery_status").
		WithArgs(id, DeliveryFailed, "boom").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), id, "boom", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
