// Package memory holds in-process repositories used when no database is
// configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
)

// ProfileRepo is an in-memory optimization.ProfileRepository.
type ProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]domain.StoredProfile // keyed by client id
	now      func() time.Time
}

// NewProfileRepo creates an empty repository.
func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{
		profiles: make(map[string]domain.StoredProfile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *ProfileRepo) Get(_ context.Context, clientID string) (*domain.StoredProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[clientID]
	if !ok {
		return nil, optimization.ErrProfileNotFound
	}
	return &p, nil
}

func (m *ProfileRepo) List(_ context.Context) ([]domain.StoredProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.StoredProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out, nil
}

func (m *ProfileRepo) Upsert(_ context.Context, p *domain.StoredProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	p.CreatedAt = now
	if old, ok := m.profiles[p.ClientID]; ok {
		p.CreatedAt = old.CreatedAt
	}
	p.UpdatedAt = now
	m.profiles[p.ClientID] = *p
	return nil
}

func (m *ProfileRepo) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[clientID]; !ok {
		return optimization.ErrProfileNotFound
	}
	delete(m.profiles, clientID)
	return nil
}
