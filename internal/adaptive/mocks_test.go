package adaptive

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/parley/internal/domain"
)

type memProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]domain.UserProfile
	saveErr  error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[uuid.UUID]domain.UserProfile)}
}

func cloneProfile(p domain.UserProfile) *domain.UserProfile {
	p.Strengths = domain.NewSkillSet(p.Strengths.Slice()...)
	p.Weaknesses = domain.NewSkillSet(p.Weaknesses.Slice()...)
	return &p
}

func (m *memProfiles) Create(_ context.Context, p *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; ok {
		return domain.ErrProfileAlreadyExists
	}
	m.profiles[p.UserID] = *cloneProfile(*p)
	return nil
}

func (m *memProfiles) Get(_ context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (m *memProfiles) Save(_ context.Context, p *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.profiles[p.UserID]; !ok {
		return domain.ErrProfileNotFound
	}
	m.profiles[p.UserID] = *cloneProfile(*p)
	return nil
}

func (m *memProfiles) failSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *memProfiles) ListAutoAdjust(_ context.Context) ([]*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.UserProfile
	for _, p := range m.profiles {
		if p.AdaptiveAutoAdjust {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

type memMetrics struct {
	mu   sync.Mutex
	rows []domain.ConversationMetrics
}

func (m *memMetrics) Append(_ context.Context, c *domain.ConversationMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == c.UserID && r.SessionID == c.SessionID {
			return domain.ErrDuplicateSession
		}
	}
	m.rows = append(m.rows, *c)
	return nil
}

func (m *memMetrics) Recent(_ context.Context, userID uuid.UUID, limit int) ([]domain.ConversationMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ConversationMetrics
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.ConversationMetrics) int {
		return b.RecordedAt.Compare(a.RecordedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memMetrics) CountSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.UserID == userID && r.RecordedAt.After(since) {
			n++
		}
	}
	return n, nil
}

type memRecs struct {
	mu      sync.Mutex
	recs    map[uuid.UUID]domain.RecommendationRecord
	saveErr error
}

func newMemRecs() *memRecs {
	return &memRecs{recs: make(map[uuid.UUID]domain.RecommendationRecord)}
}

func (m *memRecs) Save(_ context.Context, r *domain.RecommendationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.recs[r.ID] = *r
	return nil
}

func (m *memRecs) failSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *memRecs) Get(_ context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[id]
	if !ok {
		return nil, domain.ErrRecommendationNotFound
	}
	return &r, nil
}

func (m *memRecs) Latest(ctx context.Context, userID uuid.UUID) (*domain.RecommendationRecord, error) {
	list, _ := m.List(ctx, userID, 1)
	if len(list) == 0 {
		return nil, domain.ErrRecommendationNotFound
	}
	return &list[0], nil
}

func (m *memRecs) List(_ context.Context, userID uuid.UUID, limit int) ([]domain.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RecommendationRecord
	for _, r := range m.recs {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.RecommendationRecord) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(e domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
