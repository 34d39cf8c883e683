package serviceimpl

import (
	"context"
	"sync"
	"time"

	"face-attendance/domain/matching"
	"face-attendance/domain/repositories"
	"face-attendance/domain/services"
	"face-attendance/pkg/embedding"
	"face-attendance/pkg/logger"
)

type GalleryServiceImpl struct {
	identityRepo repositories.IdentityRepository
	embeddingDim int

	mu          sync.RWMutex
	snapshot    []matching.GalleryEntry
	lastRefresh time.Time
	available   bool
}

func NewGalleryService(identityRepo repositories.IdentityRepository, embeddingDim int) services.GalleryService {
	return &GalleryServiceImpl{
		identityRepo: identityRepo,
		embeddingDim: embeddingDim,
		snapshot:     []matching.GalleryEntry{},
	}
}

// Load populates the gallery at startup. A store failure is downgraded to
// an empty gallery so the service can come up and answer with no-match
// until Refresh succeeds.
func (s *GalleryServiceImpl) Load(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		logger.GalleryWarn("load_degraded", "Gallery store unreachable, starting with empty gallery", map[string]interface{}{
			"error": err.Error(),
		})
		s.install([]matching.GalleryEntry{}, false)
		return nil
	}
	return nil
}

// Refresh re-reads every enrolled profile and swaps the snapshot in
// atomically. Profiles whose stored embedding does not decode to the
// configured dimension are skipped, not fatal.
func (s *GalleryServiceImpl) Refresh(ctx context.Context) error {
	identities, err := s.identityRepo.List(ctx)
	if err != nil {
		s.setUnavailable()
		logger.GalleryError("refresh", "Failed to list enrolled profiles", err, nil)
		return err
	}

	entries := make([]matching.GalleryEntry, 0, len(identities))
	skipped := 0
	for _, identity := range identities {
		vec, err := embedding.DecodeWithDim(identity.Embedding, s.embeddingDim)
		if err != nil {
			skipped++
			logger.GalleryWarn("refresh_skip", "Skipping profile with undecodable embedding", map[string]interface{}{
				"reg_no": identity.RegNo,
				"error":  err.Error(),
			})
			continue
		}
		entries = append(entries, matching.GalleryEntry{
			RegNo:     identity.RegNo,
			Name:      identity.Name,
			Embedding: vec,
		})
	}

	s.install(entries, true)

	logger.Gallery("refresh", "Gallery refreshed", map[string]interface{}{
		"size":    len(entries),
		"skipped": skipped,
	})
	return nil
}

func (s *GalleryServiceImpl) Snapshot() []matching.GalleryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *GalleryServiceImpl) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

func (s *GalleryServiceImpl) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *GalleryServiceImpl) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

func (s *GalleryServiceImpl) install(entries []matching.GalleryEntry, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = entries
	s.lastRefresh = time.Now()
	s.available = available
}

func (s *GalleryServiceImpl) setUnavailable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = false
}
