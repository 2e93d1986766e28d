// internal/tips/service.go

package tips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/llm"
)

var ErrGeneration = errors.New("tip generation failed")

const systemActor = "system"

// Options carries the weekly job settings
type Options struct {
	AutoActivate bool
}

// Service defines the tips service interface
type Service interface {
	GenerateTip(ctx context.Context, category, actorID string) (*Tip, error)
	GenerateWeeklyTip(ctx context.Context) (*Tip, error)
	Approve(ctx context.Context, id uuid.UUID) (*Tip, error)
	Activate(ctx context.Context, id uuid.UUID) (*Tip, error)
	Reject(ctx context.Context, id uuid.UUID) (*Tip, error)
	Archive(ctx context.Context, id uuid.UUID) (*Tip, error)
	GetActive(ctx context.Context) (*Tip, error)
	List(ctx context.Context, status Status, limit int) ([]*Tip, error)
}

type service struct {
	repo Repository
	llm  llm.Client
	opts Options
	now  func() time.Time
	log  *zap.Logger
}

// NewService creates a new tips service
func NewService(repo Repository, client llm.Client, opts Options, log *zap.Logger) Service {
	return &service{
		repo: repo,
		llm:  client,
		opts: opts,
		now:  time.Now,
		log:  log.Named("tips"),
	}
}

// GenerateTip asks the model for a tip and stores it as pending
func (s *service) GenerateTip(ctx context.Context, category, actorID string) (*Tip, error) {
	raw, err := s.llm.CallFunction(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      tipPrompt(category),
		Temperature: 0.8,
		MaxTokens:   1500,
	}, tipFunction)
	if err != nil {
		tipsGenerated.WithLabelValues("error").Inc()
		s.log.Error("tip generation failed", zap.String("category", category), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	g, err := parseTip(raw)
	if err != nil {
		tipsGenerated.WithLabelValues("invalid").Inc()
		s.log.Warn("model returned an unusable tip", zap.String("category", category), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	now := s.now().UTC()
	t := &Tip{
		ID:               uuid.New(),
		Title:            g.Title,
		ShortDescription: g.ShortDescription,
		MainContent:      g.MainContent,
		WhyThisMatters:   g.WhyThisMatters,
		QuickTips:        QuickTips(g.QuickTips),
		DidYouKnow:       g.DidYouKnow,
		WeeklyChallenge:  g.WeeklyChallenge,
		Category:         category,
		Status:           StatusPending,
		PublishedAt:      &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if actorID != "" {
		t.CreatedBy = &actorID
	}
	if t.QuickTips == nil {
		t.QuickTips = QuickTips{}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	tipsGenerated.WithLabelValues("ok").Inc()
	s.log.Info("tip generated",
		zap.String("tip_id", t.ID.String()),
		zap.String("category", category),
		zap.String("provider", s.llm.Name()))
	return t, nil
}

// GenerateWeeklyTip writes the next category's tip and activates it when
// auto-activation is on
func (s *service) GenerateWeeklyTip(ctx context.Context) (*Tip, error) {
	last, err := s.repo.LastCategory(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.GenerateTip(ctx, nextCategory(last), systemActor)
	if err != nil {
		return nil, err
	}

	if !s.opts.AutoActivate {
		return t, nil
	}
	return s.Activate(ctx, t.ID)
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*Tip, error) {
	return s.move(ctx, id, StatusApproved)
}

// Activate makes id the single active tip
func (s *service) Activate(ctx context.Context, id uuid.UUID) (*Tip, error) {
	t, err := s.repo.Activate(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info("tip activated", zap.String("tip_id", id.String()))
	return t, nil
}

func (s *service) Reject(ctx context.Context, id uuid.UUID) (*Tip, error) {
	return s.move(ctx, id, StatusRejected)
}

func (s *service) Archive(ctx context.Context, id uuid.UUID) (*Tip, error) {
	return s.move(ctx, id, StatusArchived)
}

func (s *service) move(ctx context.Context, id uuid.UUID, to Status) (*Tip, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == to {
		return t, nil
	}
	if !t.Status.CanBecome(to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, t.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, id, t.Status, to); err != nil {
		return nil, err
	}
	t.Status = to
	t.UpdatedAt = s.now().UTC()
	return t, nil
}

func (s *service) GetActive(ctx context.Context) (*Tip, error) {
	return s.repo.GetActive(ctx)
}

func (s *service) List(ctx context.Context, status Status, limit int) ([]*Tip, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, status, limit)
}
