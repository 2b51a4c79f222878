package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/unit/domain/unit"
)

// indexTTL bounds how stale a cached hierarchy snapshot may get. Unit edits
// happen rarely and outside this core, so a short cache is safe.
const indexTTL = 30 * time.Second

type UnitService struct {
	repo unit.Repository

	mu      sync.Mutex
	index   unit.Index
	builtAt time.Time
}

func NewUnitService(repo unit.Repository) *UnitService {
	return &UnitService{repo: repo}
}

func (s *UnitService) GetAll(ctx context.Context) ([]unit.Unit, error) {
	return s.repo.GetAll(ctx)
}

func (s *UnitService) GetByID(ctx context.Context, id uuid.UUID) (unit.Unit, error) {
	return s.repo.GetByID(ctx, id)
}

// Index returns the hierarchy index, rebuilding it when the cached snapshot
// has expired.
func (s *UnitService) Index(ctx context.Context) (unit.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil && time.Since(s.builtAt) < indexTTL {
		return s.index, nil
	}
	units, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.index = unit.BuildIndex(units)
	s.builtAt = time.Now()
	return s.index, nil
}

// Invalidate drops the cached index; the next Index call rebuilds it.
func (s *UnitService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
}
