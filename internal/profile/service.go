// internal/profile/service.go

package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidAnswers  = errors.New("invalid questionnaire answers")
)

// Service defines the profile service interface
type Service interface {
	GetProfile(ctx context.Context, id string) (*UserProfile, error)
	GetProfiles(ctx context.Context, ids ...string) (map[string]*UserProfile, error)
	UpdateQuestionnaire(ctx context.Context, id string, req *UpdateQuestionnaireRequest) (*UserProfile, error)
	ListQuestionnaireCompleted(ctx context.Context) ([]*UserProfile, error)
	UpdatePushToken(ctx context.Context, id, token string) error
	Archive(ctx context.Context, id string) error
	Contact(ctx context.Context, id string) (Contact, error)
}

type service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a new profile service
func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log.Named("profile")}
}

func (s *service) GetProfile(ctx context.Context, id string) (*UserProfile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfiles loads several profiles at once. Missing IDs yield ErrProfileNotFound.
func (s *service) GetProfiles(ctx context.Context, ids ...string) (map[string]*UserProfile, error) {
	profiles, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*UserProfile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, ErrProfileNotFound
		}
	}
	return out, nil
}

func (s *service) UpdateQuestionnaire(ctx context.Context, id string, req *UpdateQuestionnaireRequest) (*UserProfile, error) {
	cleaned := make(Answers, len(req.Answers))
	for k, v := range req.Answers {
		key := strings.TrimSpace(k)
		if key == "" {
			return nil, ErrInvalidAnswers
		}
		cleaned[key] = v
	}

	p, err := s.repo.MergeAnswers(ctx, id, cleaned, req.Completed)
	if err != nil {
		return nil, err
	}

	s.log.Info("questionnaire updated",
		zap.String("user_id", id),
		zap.Int("keys", len(cleaned)),
		zap.Bool("completed", p.QuestionnaireCompleted))
	return p, nil
}

func (s *service) ListQuestionnaireCompleted(ctx context.Context) ([]*UserProfile, error) {
	return s.repo.ListQuestionnaireCompleted(ctx)
}

func (s *service) UpdatePushToken(ctx context.Context, id, token string) error {
	return s.repo.UpdatePushToken(ctx, id, strings.TrimSpace(token))
}

func (s *service) Archive(ctx context.Context, id string) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		return err
	}
	s.log.Info("profile archived", zap.String("user_id", id))
	return nil
}

func (s *service) Contact(ctx context.Context, id string) (Contact, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	return p.Contact(), nil
}
