// internal/matching/explanations.go

package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/notification"
)

// explain scores the pair and produces explanation text, using the cache
// unless regenerate is set
func (s *service) explain(ctx context.Context, m *Match, regenerate bool) (explanation.Output, error) {
	profiles, err := s.profiles.GetProfiles(ctx, m.Member1ID, m.Member2ID)
	if err != nil {
		return explanation.Output{}, err
	}
	p1, p2 := profiles[m.Member1ID], profiles[m.Member2ID]

	key := explanationKey(m.ID, p1.QuestionnaireAnswers, p2.QuestionnaireAnswers)
	if !regenerate {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return *cached, nil
		}
	}

	result := compatibility.Calculate(compatibility.Answers(p1.QuestionnaireAnswers), compatibility.Answers(p2.QuestionnaireAnswers))
	out := s.generator.Generate(ctx, explanation.Input{
		Member1: p1.Summary(),
		Member2: p2.Summary(),
		Points:  compatibility.MatchingPoints(result),
		Overall: result.Overall,
	})
	if out.Generated() {
		s.cache.Set(ctx, key, out)
	}
	return out, nil
}

func (s *service) GenerateExplanation(ctx context.Context, req *GenerateExplanationRequest) (*ExplanationResponse, error) {
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		return nil, ErrMatchNotFound
	}
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	// CreateMatch may have swapped the order; the response always carries the stored one
	if !m.HasMembers(req.Member1ID, req.Member2ID) {
		return nil, ErrMemberMismatch
	}

	out, err := s.explain(ctx, m, false)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveExplanation(ctx, m.ID, explanation.Encode(out.Member1Points), explanation.Encode(out.Member2Points), out.Source); err != nil {
		return nil, err
	}

	return &ExplanationResponse{
		Member1Points: out.Member1Points,
		Member2Points: out.Member2Points,
		Member1ID:     m.Member1ID,
		Member2ID:     m.Member2ID,
		Generated:     out.Generated(),
		Source:        out.Source,
	}, nil
}

// SendWithExplanation delivers the proposal to both members. Notification IDs
// are keyed by send sequence: a retried first send reuses the current
// sequence, an explicit resend advances it.
func (s *service) SendWithExplanation(ctx context.Context, actorID string, req *SendWithExplanationRequest) (*SendResponse, error) {
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		return nil, ErrMatchNotFound
	}
	m, err := s.repo.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Stage != StagePending && m.Stage != StageAcceptedByOne {
		return nil, fmt.Errorf("%w: cannot send a proposal in stage %s", ErrInvalidTransition, m.Stage)
	}

	var (
		expl         explanation.Output
		generationMs int64
	)
	if m.HasExplanation() && !req.RegenerateExplanation {
		expl.Member1Points, expl.Member2Points = m.Explanations()
		expl.Source = explanation.SourceLLM
		if m.ExplanationSource != nil {
			expl.Source = explanation.Source(*m.ExplanationSource)
		}
	} else {
		start := time.Now()
		expl, err = s.explain(ctx, m, req.RegenerateExplanation)
		if err != nil {
			return nil, err
		}
		generationMs = time.Since(start).Milliseconds()
		if err := s.repo.SaveExplanation(ctx, m.ID, explanation.Encode(expl.Member1Points), explanation.Encode(expl.Member2Points), expl.Source); err != nil {
			return nil, err
		}
	}

	nm, err := s.names(ctx, matchID)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(ctx, matchID, actorID, func(m *Match, mu *mutation) error {
		if m.Stage != StagePending && m.Stage != StageAcceptedByOne {
			return fmt.Errorf("%w: cannot send a proposal in stage %s", ErrInvalidTransition, m.Stage)
		}

		seq := m.SentCount
		if req.IsResend || m.SentCount == 0 {
			seq = m.SentCount + 1
			now := mu.now
			m.SentCount = seq
			m.LastSentAt = &now
			mu.touch(m, EventSendProposal)
		}

		transition := fmt.Sprintf("%s#%d", notification.TypeMatchProposal, seq)
		mu.notify(
			memberNote(m, m.Member1ID, notification.TypeMatchProposal, transition, proposalText(nm.of(m.Member2ID)),
				notification.Payload{"explanationPoints": expl.Member1Points, "sendSequence": seq}),
			memberNote(m, m.Member2ID, notification.TypeMatchProposal, transition, proposalText(nm.of(m.Member1ID)),
				notification.Payload{"explanationPoints": expl.Member2Points, "sendSequence": seq}),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(out.notificationIDs))
	for _, id := range out.notificationIDs {
		ids = append(ids, id.String())
	}

	proposalsSent.Inc()
	s.log.Info("match proposal sent",
		zap.String("match_id", matchID.String()),
		zap.Int("sent_count", out.match.SentCount),
		zap.Bool("is_resend", req.IsResend),
		zap.Int("notifications_written", out.notificationsWritten),
		zap.String("explanation_source", string(expl.Source)))

	return &SendResponse{
		Success:         true,
		MatchID:         matchID.String(),
		NotificationIDs: ids,
		Explanation: ExplanationPair{
			Member1Points: expl.Member1Points,
			Member2Points: expl.Member2Points,
		},
		Metrics: SendMetrics{
			GenerationMs:         generationMs,
			ExplanationSource:    expl.Source,
			NotificationsWritten: out.notificationsWritten,
			IsResend:             req.IsResend,
		},
	}, nil
}
