// internal/matching/analysis.go

package matching

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/profile"
)

// AnalyzeCandidates scores every completed member against every completed
// member of the opposite gender and stores each member's best candidates.
// A failing member is logged and skipped.
func (s *service) AnalyzeCandidates(ctx context.Context) (int, error) {
	members, err := s.profiles.ListQuestionnaireCompleted(ctx)
	if err != nil {
		return 0, err
	}

	byGender := map[string][]*profile.UserProfile{}
	for _, p := range members {
		byGender[p.Gender] = append(byGender[p.Gender], p)
	}

	analyzed := 0
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return analyzed, err
		}

		var pool []*profile.UserProfile
		switch member.Gender {
		case profile.GenderMale:
			pool = byGender[profile.GenderFemale]
		case profile.GenderFemale:
			pool = byGender[profile.GenderMale]
		default:
			continue
		}

		suggestions := rankCandidates(member, pool, s.opts.SuggestionLimit, s.now().UTC())
		if err := s.repo.ReplaceSuggestions(ctx, member.ID, suggestions); err != nil {
			s.log.Error("failed to store suggestions", zap.String("member_id", member.ID), zap.Error(err))
			continue
		}
		analyzed++
	}

	candidateAnalyses.Inc()
	s.log.Info("candidate analysis complete", zap.Int("members", len(members)), zap.Int("analyzed", analyzed))
	return analyzed, nil
}

// rankCandidates keeps the best limit candidates. Deal-breaker pairs are
// dropped; degraded scores rank after genuine ones.
func rankCandidates(member *profile.UserProfile, pool []*profile.UserProfile, limit int, now time.Time) []*Suggestion {
	var out []*Suggestion
	for _, c := range pool {
		if c.ID == member.ID {
			continue
		}
		r := compatibility.Calculate(compatibility.Answers(member.QuestionnaireAnswers), compatibility.Answers(c.QuestionnaireAnswers))
		if !r.Compatible {
			continue
		}
		sg := &Suggestion{
			MemberID:    member.ID,
			CandidateID: c.ID,
			Score:       r.Overall,
			Compatible:  r.Compatible,
			Degraded:    r.Degraded,
			ComputedAt:  now,
		}
		if r.Degraded {
			reason := r.DegradedReason
			sg.Reason = &reason
		}
		out = append(out, sg)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Degraded != out[j].Degraded {
			return !out[i].Degraded
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
