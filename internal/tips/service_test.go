package tips

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/llm"
)

type fakeRepo struct {
	tips map[uuid.UUID]*Tip
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tips: map[uuid.UUID]*Tip{}}
}

func (r *fakeRepo) Create(ctx context.Context, t *Tip) error {
	cp := *t
	r.tips[t.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*Tip, error) {
	t, ok := r.tips[id]
	if !ok {
		return nil, ErrTipNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRepo) GetActive(ctx context.Context) (*Tip, error) {
	for _, t := range r.tips {
		if t.Status == StatusActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNoActiveTip
}

func (r *fakeRepo) List(ctx context.Context, status Status, limit int) ([]*Tip, error) {
	var out []*Tip
	for _, t := range r.tips {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) LastCategory(ctx context.Context) (string, error) {
	var last *Tip
	for _, t := range r.tips {
		if last == nil || t.CreatedAt.After(last.CreatedAt) {
			last = t
		}
	}
	if last == nil {
		return "", nil
	}
	return last.Category, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	t, ok := r.tips[id]
	if !ok || t.Status != from {
		return ErrConcurrentUpdate
	}
	t.Status = to
	return nil
}

func (r *fakeRepo) Activate(ctx context.Context, id uuid.UUID, at time.Time) (*Tip, error) {
	t, ok := r.tips[id]
	if !ok {
		return nil, ErrTipNotFound
	}
	if t.Status == StatusActive {
		cp := *t
		return &cp, nil
	}
	if !t.Status.CanBecome(StatusActive) {
		return nil, ErrInvalidStatus
	}
	for _, other := range r.tips {
		if other.Status == StatusActive {
			other.Status = StatusArchived
		}
	}
	t.Status = StatusActive
	t.ActivatedAt = &at
	cp := *t
	return &cp, nil
}

func (r *fakeRepo) activeCount() int {
	n := 0
	for _, t := range r.tips {
		if t.Status == StatusActive {
			n++
		}
	}
	return n
}

type fakeLLM struct {
	args    string
	err     error
	prompts []string
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	return "", llm.ErrNotConfigured
}

func (f *fakeLLM) CallFunction(ctx context.Context, req llm.Request, fn llm.Function) (json.RawMessage, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.args), nil
}

const validTip = `{
	"title": "Listen First",
	"shortDescription": "Good conversations start with curiosity.",
	"mainContent": "Ask open questions and let the answer land.",
	"whyThisMatters": "Feeling heard builds trust.",
	"quickTips": ["Ask why", "Put the phone away", "Repeat back"],
	"didYouKnow": "People remember how you made them feel.",
	"weeklyChallenge": "Ask one follow-up question in every conversation."
}`

type tipsFixture struct {
	svc  *service
	repo *fakeRepo
	llm  *fakeLLM
	tick time.Time
}

func newTipsFixture(t *testing.T, opts Options) *tipsFixture {
	t.Helper()
	f := &tipsFixture{repo: newFakeRepo(), llm: &fakeLLM{args: validTip}, tick: time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)}
	f.svc = NewService(f.repo, f.llm, opts, zap.NewNop()).(*service)
	// each call sees a later clock so creation order is stable
	f.svc.now = func() time.Time {
		f.tick = f.tick.Add(time.Minute)
		return f.tick
	}
	return f
}

func TestGenerateTip(t *testing.T) {
	f := newTipsFixture(t, Options{})

	tip, err := f.svc.GenerateTip(context.Background(), "first_dates", "mm-1")
	require.NoError(t, err)
	assert.Equal(t, "Listen First", tip.Title)
	assert.Equal(t, StatusPending, tip.Status)
	assert.Equal(t, "first_dates", tip.Category)
	assert.Len(t, tip.QuickTips, 3)
	require.NotNil(t, tip.PublishedAt)
	require.NotNil(t, tip.CreatedBy)
	assert.Equal(t, "mm-1", *tip.CreatedBy)
	assert.Contains(t, f.llm.prompts[0], "first dates")

	stored, err := f.repo.Get(context.Background(), tip.ID)
	require.NoError(t, err)
	assert.Equal(t, tip.Title, stored.Title)
}

func TestGenerateTipFailures(t *testing.T) {
	f := newTipsFixture(t, Options{})

	f.llm.err = errors.New("rate limited")
	_, err := f.svc.GenerateTip(context.Background(), "communication", "")
	assert.ErrorIs(t, err, ErrGeneration)

	f.llm.err = nil
	f.llm.args = `{"shortDescription": "no title"}`
	_, err = f.svc.GenerateTip(context.Background(), "communication", "")
	assert.ErrorIs(t, err, ErrGeneration)

	assert.Empty(t, f.repo.tips)
}

func TestGenerateWeeklyTipRotatesCategories(t *testing.T) {
	f := newTipsFixture(t, Options{})
	ctx := context.Background()

	first, err := f.svc.GenerateWeeklyTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, Categories[0], first.Category)
	assert.Equal(t, StatusPending, first.Status)

	second, err := f.svc.GenerateWeeklyTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, Categories[1], second.Category)
}

func TestNextCategoryWraps(t *testing.T) {
	assert.Equal(t, Categories[0], nextCategory(""))
	assert.Equal(t, Categories[0], nextCategory("unknown"))
	assert.Equal(t, Categories[0], nextCategory(Categories[len(Categories)-1]))
}

func TestGenerateWeeklyTipAutoActivates(t *testing.T) {
	f := newTipsFixture(t, Options{AutoActivate: true})
	ctx := context.Background()

	first, err := f.svc.GenerateWeeklyTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, first.Status)

	second, err := f.svc.GenerateWeeklyTip(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, second.Status)

	assert.Equal(t, 1, f.repo.activeCount())
	old, _ := f.repo.Get(ctx, first.ID)
	assert.Equal(t, StatusArchived, old.Status)
}

func TestStatusLifecycle(t *testing.T) {
	f := newTipsFixture(t, Options{})
	ctx := context.Background()

	tip, err := f.svc.GenerateTip(ctx, "self_growth", "mm-1")
	require.NoError(t, err)

	_, err = f.svc.Archive(ctx, tip.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	approved, err := f.svc.Approve(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)

	active, err := f.svc.Activate(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, active.Status)

	got, err := f.svc.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip.ID, got.ID)

	_, err = f.svc.Reject(ctx, tip.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	archived, err := f.svc.Archive(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)

	_, err = f.svc.GetActive(ctx)
	assert.ErrorIs(t, err, ErrNoActiveTip)

	_, err = f.svc.Activate(ctx, tip.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRejectPending(t *testing.T) {
	f := newTipsFixture(t, Options{})
	ctx := context.Background()

	tip, err := f.svc.GenerateTip(ctx, "communication", "")
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, tip.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	_, err = f.svc.Approve(ctx, tip.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.Approve(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTipNotFound)
}

func TestListDefaultsLimit(t *testing.T) {
	f := newTipsFixture(t, Options{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.GenerateTip(ctx, "communication", "")
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := f.svc.List(ctx, StatusPending, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestNextRun(t *testing.T) {
	// Wednesday 2026-04-08 10:00
	now := time.Date(2026, 4, 8, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 4, 13, 9, 0, 0, 0, time.UTC), nextRun(now, time.Monday, 9))
	assert.Equal(t, time.Date(2026, 4, 8, 11, 0, 0, 0, time.UTC), nextRun(now, time.Wednesday, 11))
	assert.Equal(t, time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC), nextRun(now, time.Wednesday, 10))
}
