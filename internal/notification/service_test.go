package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func at(n *Notification, ts time.Time) *Notification {
	n.CreatedAt = ts
	return n
}

func TestLatestPerMatch(t *testing.T) {
	now := time.Now()
	m1, m2 := uuid.New(), uuid.New()

	older := at(New(CollectionMember, "u", m1, TypeMatchProposal, "", "a", nil), now.Add(-2*time.Hour))
	newer := at(New(CollectionMember, "u", m1, TypeMatchAccepted, "", "b", nil), now.Add(-time.Hour))
	other := at(New(CollectionMember, "u", m2, TypeMatchProposal, "", "c", nil), now)

	out := LatestPerMatch([]*Notification{older, other, newer})

	require.Len(t, out, 2)
	assert.Equal(t, other.ID, out[0].ID)
	assert.Equal(t, newer.ID, out[1].ID)
}

func TestServiceListRejectsUnknownCollection(t *testing.T) {
	svc := NewService(newFakeRepo(), zap.NewNop())
	_, err := svc.List(context.Background(), "u", ListOptions{Collection: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidCollection)
}

func TestServiceListClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, zap.NewNop())

	_, err := svc.List(context.Background(), "u", ListOptions{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, maxListLimit, repo.lastLimit)

	_, err = svc.List(context.Background(), "u", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, repo.lastLimit)
}
