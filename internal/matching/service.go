// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/profile"
)

var (
	ErrNotParticipant           = errors.New("user is not a participant in this match")
	ErrForbidden                = errors.New("not allowed to access this match")
	ErrIncompatible             = errors.New("members are incompatible")
	ErrMemberArchived           = errors.New("member is archived")
	ErrMemberMismatch           = errors.New("members do not belong to this match")
	ErrInvalidSchedule          = errors.New("meeting time must be in the future")
	ErrPaymentReferenceRequired = errors.New("payment reference is required")
)

// ProfileReader is the slice of the profile service matching needs
type ProfileReader interface {
	GetProfiles(ctx context.Context, ids ...string) (map[string]*profile.UserProfile, error)
	ListQuestionnaireCompleted(ctx context.Context) ([]*profile.UserProfile, error)
}

// ExplanationGenerator produces explanation text; it never fails
type ExplanationGenerator interface {
	Generate(ctx context.Context, in explanation.Input) explanation.Output
}

// Options carries the tunables from config
type Options struct {
	PaymentRequired bool
	SuggestionLimit int
	ExpireBatchSize int
}

// Service defines the matching service interface
type Service interface {
	// Matches
	CreateMatch(ctx context.Context, matchmakerID string, req *CreateMatchRequest) (*Match, error)
	GetMatch(ctx context.Context, id uuid.UUID, viewerID string, isMatchmaker bool) (*Match, error)
	ListForMember(ctx context.Context, memberID string) ([]*Match, error)
	ListForMatchmaker(ctx context.Context, matchmakerID string) ([]*Match, error)
	History(ctx context.Context, id uuid.UUID) ([]*MatchEvent, error)

	// Workflow
	AcceptMatch(ctx context.Context, matchID uuid.UUID, userID string) (*Match, error)
	DeclineMatch(ctx context.Context, matchID uuid.UUID, userID, reason string) (*Match, error)
	RecordPayment(ctx context.Context, matchID uuid.UUID, payerID, reference string) (*Match, error)
	ScheduleVirtualMeeting(ctx context.Context, matchID uuid.UUID, actorID string, at time.Time) (*Match, error)
	CompleteVirtualMeeting(ctx context.Context, matchID uuid.UUID, matchmakerID string) (*Match, error)
	MatchmakerApprove(ctx context.Context, matchID uuid.UUID, matchmakerID string) (*Match, error)
	ApproveMatchForDate(ctx context.Context, matchID uuid.UUID, matchmakerID string) (*Match, error)

	// Explanations
	GenerateExplanation(ctx context.Context, req *GenerateExplanationRequest) (*ExplanationResponse, error)
	SendWithExplanation(ctx context.Context, actorID string, req *SendWithExplanationRequest) (*SendResponse, error)

	// Analysis
	Preview(ctx context.Context, member1ID, member2ID string) (*PreviewResponse, error)
	Suggestions(ctx context.Context, memberID string) ([]*Suggestion, error)
	DeclineAnalytics(ctx context.Context, memberID string) (*DeclineAnalytics, error)

	// Scheduled Jobs
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
	AnalyzeCandidates(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	profiles  ProfileReader
	generator ExplanationGenerator
	cache     ExplanationCache
	opts      Options
	now       func() time.Time
	log       *zap.Logger
}

// NewService creates a new matching service. cache may be nil.
func NewService(repo Repository, profiles ProfileReader, generator ExplanationGenerator, cache ExplanationCache, opts Options, log *zap.Logger) Service {
	if cache == nil {
		cache = noopCache{}
	}
	if opts.SuggestionLimit <= 0 {
		opts.SuggestionLimit = 10
	}
	if opts.ExpireBatchSize <= 0 {
		opts.ExpireBatchSize = 500
	}
	return &service{
		repo:      repo,
		profiles:  profiles,
		generator: generator,
		cache:     cache,
		opts:      opts,
		now:       time.Now,
		log:       log.Named("matching"),
	}
}

func (s *service) CreateMatch(ctx context.Context, matchmakerID string, req *CreateMatchRequest) (*Match, error) {
	profiles, err := s.profiles.GetProfiles(ctx, req.Member1ID, req.Member2ID)
	if err != nil {
		return nil, err
	}
	p1, p2 := profiles[req.Member1ID], profiles[req.Member2ID]
	if p1.IsArchived() || p2.IsArchived() {
		return nil, ErrMemberArchived
	}

	// member1 is the male side of the pair when genders say so
	if p1.Gender == profile.GenderFemale && p2.Gender == profile.GenderMale {
		p1, p2 = p2, p1
	}

	exists, err := s.repo.PairExists(ctx, p1.ID, p2.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrMatchExists
	}

	result := compatibility.Calculate(compatibility.Answers(p1.QuestionnaireAnswers), compatibility.Answers(p2.QuestionnaireAnswers))
	if !result.Compatible {
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, result.Reason)
	}
	if result.Degraded {
		s.log.Warn("creating match with degraded compatibility",
			zap.String("member1_id", p1.ID),
			zap.String("member2_id", p2.ID),
			zap.String("reason", result.DegradedReason))
	}

	paymentRequired := s.opts.PaymentRequired
	if req.PaymentRequired != nil {
		paymentRequired = *req.PaymentRequired
	}

	now := s.now().UTC()
	m := &Match{
		ID:                 uuid.New(),
		Member1ID:          p1.ID,
		Member2ID:          p2.ID,
		Stage:              StagePending,
		CompatibilityScore: compatibility.Percent(result),
		MatchingPoints:     Points(compatibility.MatchingPoints(result)),
		PaymentRequired:    paymentRequired,
		CreatedBy:          matchmakerID,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	matchesCreated.Inc()
	compatibilityScores.Observe(result.Overall)
	s.log.Info("match created",
		zap.String("match_id", m.ID.String()),
		zap.String("matchmaker_id", matchmakerID),
		zap.Int("score", m.CompatibilityScore))

	return m, nil
}

func (s *service) GetMatch(ctx context.Context, id uuid.UUID, viewerID string, isMatchmaker bool) (*Match, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isMatchmaker && m.Side(viewerID) == 0 {
		return nil, ErrForbidden
	}
	return m, nil
}

func (s *service) ListForMember(ctx context.Context, memberID string) ([]*Match, error) {
	return s.repo.ListForMember(ctx, memberID)
}

func (s *service) ListForMatchmaker(ctx context.Context, matchmakerID string) ([]*Match, error) {
	return s.repo.ListForMatchmaker(ctx, matchmakerID)
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]*MatchEvent, error) {
	return s.repo.ListEvents(ctx, id)
}

func (s *service) Preview(ctx context.Context, member1ID, member2ID string) (*PreviewResponse, error) {
	profiles, err := s.profiles.GetProfiles(ctx, member1ID, member2ID)
	if err != nil {
		return nil, err
	}

	result := compatibility.Calculate(
		compatibility.Answers(profiles[member1ID].QuestionnaireAnswers),
		compatibility.Answers(profiles[member2ID].QuestionnaireAnswers),
	)

	return &PreviewResponse{
		Member1ID:          member1ID,
		Member2ID:          member2ID,
		CompatibilityScore: compatibility.Percent(result),
		Result:             result,
		MatchingPoints:     compatibility.MatchingPoints(result),
	}, nil
}

func (s *service) Suggestions(ctx context.Context, memberID string) ([]*Suggestion, error) {
	return s.repo.ListSuggestions(ctx, memberID, s.opts.SuggestionLimit)
}

func (s *service) DeclineAnalytics(ctx context.Context, memberID string) (*DeclineAnalytics, error) {
	return s.repo.GetDeclineAnalytics(ctx, memberID)
}

// names loads display names for message text. Failures only cost the names.
func (s *service) names(ctx context.Context, matchID uuid.UUID) (names, error) {
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	out := names{}
	profiles, err := s.profiles.GetProfiles(ctx, m.Member1ID, m.Member2ID)
	if err != nil {
		s.log.Warn("could not load member names", zap.String("match_id", matchID.String()), zap.Error(err))
		return out, nil
	}
	for id, p := range profiles {
		out[id] = p.DisplayName
	}
	return out, nil
}
