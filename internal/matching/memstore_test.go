package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/notification"
	"github.com/vettly/vettly-backend/internal/profile"
)

// memStore is an in-memory Repository. Transactions buffer their writes and
// apply them only when fn succeeds.
type memStore struct {
	mu          sync.Mutex
	matches     map[uuid.UUID]*Match
	events      []*MatchEvent
	notes       map[uuid.UUID]*notification.Notification
	noteOrder   []uuid.UUID
	declines    map[string]*DeclineAnalytics
	suggestions map[string][]*Suggestion

	failNotifications error
}

func newMemStore() *memStore {
	return &memStore{
		matches:     make(map[uuid.UUID]*Match),
		notes:       make(map[uuid.UUID]*notification.Notification),
		declines:    make(map[string]*DeclineAnalytics),
		suggestions: make(map[string][]*Suggestion),
	}
}

func (s *memStore) Create(ctx context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.matches {
		if existing.Member1ID == m.Member1ID && existing.Member2ID == m.Member2ID {
			return ErrMatchExists
		}
	}
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *memStore) Get(ctx context.Context, id uuid.UUID) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) PairExists(ctx context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if (m.Member1ID == a && m.Member2ID == b) || (m.Member1ID == b && m.Member2ID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListForMember(ctx context.Context, memberID string) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Match
	for _, m := range s.matches {
		if m.Member1ID == memberID || m.Member2ID == memberID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListForMatchmaker(ctx context.Context, matchmakerID string) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Match
	for _, m := range s.matches {
		if m.CreatedBy == matchmakerID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for id, m := range s.matches {
		if (m.Stage == StagePending || m.Stage == StageAcceptedByOne) && m.CreatedAt.Before(cutoff) {
			out = append(out, id)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) SaveExplanation(ctx context.Context, id uuid.UUID, member1, member2 string, source explanation.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	src := string(source)
	m.Member1Explanation = &member1
	m.Member2Explanation = &member2
	m.ExplanationSource = &src
	return nil
}

func (s *memStore) ListEvents(ctx context.Context, matchID uuid.UUID) ([]*MatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*MatchEvent
	for _, e := range s.events {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) GetDeclineAnalytics(ctx context.Context, memberID string) (*DeclineAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.declines[memberID]; ok {
		cp := *a
		return &cp, nil
	}
	return &DeclineAnalytics{MemberID: memberID, MonthlyDeclines: Counter{}, Reasons: Counter{}}, nil
}

func (s *memStore) ReplaceSuggestions(ctx context.Context, memberID string, suggestions []*Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions[memberID] = suggestions
	return nil
}

func (s *memStore) ListSuggestions(ctx context.Context, memberID string, limit int) ([]*Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.suggestions[memberID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) RunInTx(ctx context.Context, fn func(tx TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, saved: map[uuid.UUID]*Match{}}
	if err := fn(tx); err != nil {
		return err
	}

	for id, m := range tx.saved {
		s.matches[id] = m
	}
	s.events = append(s.events, tx.events...)
	for _, n := range tx.notes {
		s.notes[n.ID] = n
		s.noteOrder = append(s.noteOrder, n.ID)
	}
	for _, d := range tx.declines {
		a, ok := s.declines[d.MemberID]
		if !ok {
			a = &DeclineAnalytics{MemberID: d.MemberID, MonthlyDeclines: Counter{}, Reasons: Counter{}}
			s.declines[d.MemberID] = a
		}
		reason := d.Reason
		if reason == "" {
			reason = "unspecified"
		}
		at := d.At
		a.TotalDeclines++
		a.MonthlyDeclines[d.Month()]++
		a.Reasons[reason]++
		a.LastDeclinedAt = &at
	}
	return nil
}

type memTx struct {
	store    *memStore
	saved    map[uuid.UUID]*Match
	events   []*MatchEvent
	notes    []*notification.Notification
	declines []Decline
}

func (t *memTx) LockMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	m, ok := t.store.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (t *memTx) SaveMatch(ctx context.Context, m *Match) error {
	if t.store.matches[m.ID].Version != m.Version {
		return ErrConcurrentUpdate
	}
	m.Version++
	cp := *m
	t.saved[m.ID] = &cp
	return nil
}

func (t *memTx) AddEvent(ctx context.Context, e *MatchEvent) error {
	t.events = append(t.events, e)
	return nil
}

func (t *memTx) AddNotifications(ctx context.Context, ns []*notification.Notification) (int, error) {
	if t.store.failNotifications != nil {
		return 0, t.store.failNotifications
	}
	written := 0
	for _, n := range ns {
		if _, ok := t.store.notes[n.ID]; ok {
			continue
		}
		t.notes = append(t.notes, n)
		written++
	}
	return written, nil
}

func (t *memTx) RecordDecline(ctx context.Context, d Decline) error {
	t.declines = append(t.declines, d)
	return nil
}

// notesFor returns stored notifications matching collection and type
func (s *memStore) notesFor(collection notification.Collection, typ notification.Type) []*notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*notification.Notification
	for _, id := range s.noteOrder {
		n := s.notes[id]
		if n.Collection == collection && n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func (s *memStore) eventNames(matchID uuid.UUID) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.MatchID == matchID {
			out = append(out, e.Event)
		}
	}
	return out
}

// memProfiles is an in-memory ProfileReader
type memProfiles map[string]*profile.UserProfile

func (p memProfiles) GetProfiles(ctx context.Context, ids ...string) (map[string]*profile.UserProfile, error) {
	out := make(map[string]*profile.UserProfile, len(ids))
	for _, id := range ids {
		prof, ok := p[id]
		if !ok {
			return nil, profile.ErrProfileNotFound
		}
		out[id] = prof
	}
	return out, nil
}

func (p memProfiles) ListQuestionnaireCompleted(ctx context.Context) ([]*profile.UserProfile, error) {
	var out []*profile.UserProfile
	for _, prof := range p {
		if prof.QuestionnaireCompleted && !prof.IsArchived() {
			out = append(out, prof)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// stubGenerator returns canned explanations and counts calls
type stubGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, in explanation.Input) explanation.Output {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return explanation.Output{
		Member1Points: []explanation.Point{{Header: "Shared values", Explanation: "for him"}},
		Member2Points: []explanation.Point{{Header: "Shared values", Explanation: "for her"}},
		Source:        explanation.SourceLLM,
	}
}
