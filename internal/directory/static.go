package directory

import (
	"context"
	"sync"

	"booking-service/internal/models"
	"booking-service/pkg/response"
)

// Static is an in-process Source for local runs and tests.
type Static struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewStatic(profiles ...models.Profile) *Static {
	s := &Static{profiles: make(map[string]models.Profile, len(profiles))}
	for _, p := range profiles {
		s.Put(p)
	}
	return s
}

func (s *Static) Put(p models.Profile) {
	p.Email = models.NormalizeEmail(p.Email)

	s.mu.Lock()
	s.profiles[p.Email] = p
	s.mu.Unlock()
}

func (s *Static) Profile(_ context.Context, email string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[models.NormalizeEmail(email)]
	if !ok {
		return nil, response.ErrNotFound
	}
	return &p, nil
}
