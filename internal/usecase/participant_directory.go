package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"messageapp/internal/domain/entity"
	"messageapp/internal/domain/repository"
	"messageapp/pkg/errors"
	"messageapp/pkg/logger"
)

// UnknownDisplayName is the sentinel shown for participants whose profile
// cannot be resolved.
const UnknownDisplayName = "Unknown"

// ParticipantDirectory caches profile summaries by user id. The cache is
// safe for concurrent use and entries never expire within the process;
// Invalidate exists for profile-edit propagation.
type ParticipantDirectory struct {
	userRepo repository.UserRepository

	mu    sync.RWMutex
	cache map[string]*entity.Participant
}

func NewParticipantDirectory(userRepo repository.UserRepository) *ParticipantDirectory {
	return &ParticipantDirectory{
		userRepo: userRepo,
		cache:    make(map[string]*entity.Participant),
	}
}

// Resolve returns a summary for every requested id. Uncached ids are looked
// up concurrently and Resolve blocks until the whole batch has completed;
// partial results are never returned. A missing user yields a sentinel
// summary instead of failing the batch, so Resolve itself never fails.
func (d *ParticipantDirectory) Resolve(ctx context.Context, ids []string) map[string]*entity.Participant {
	result := make(map[string]*entity.Participant, len(ids))

	var missing []string
	seen := make(map[string]bool, len(ids))

	d.mu.RLock()
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if p, ok := d.cache[id]; ok {
			result[id] = p
		} else {
			missing = append(missing, id)
		}
	}
	d.mu.RUnlock()

	if len(missing) == 0 {
		return result
	}

	resolved := make([]*entity.Participant, len(missing))
	cacheable := make([]bool, len(missing))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range missing {
		i, id := i, id
		g.Go(func() error {
			user, err := d.userRepo.GetByID(gctx, id)
			if err != nil {
				if !errors.Is(err, "NOT_FOUND") {
					logger.Warn("Directory lookup for %s failed: %v", id, err)
				}
				resolved[i] = &entity.Participant{ID: id, DisplayName: UnknownDisplayName}
				// Only a definitive NotFound is worth remembering; a
				// transient store failure must not poison the cache.
				cacheable[i] = errors.Is(err, "NOT_FOUND")
				return nil
			}

			resolved[i] = &entity.Participant{
				ID:          user.ID,
				DisplayName: user.DisplayName,
				AvatarURL:   user.AvatarURL,
			}
			cacheable[i] = true
			return nil
		})
	}
	g.Wait()

	d.mu.Lock()
	for i, id := range missing {
		result[id] = resolved[i]
		if cacheable[i] {
			d.cache[id] = resolved[i]
		}
	}
	d.mu.Unlock()

	return result
}

// Invalidate drops the cached summary for id so the next Resolve refetches
// it. Callers wire this to profile edits.
func (d *ParticipantDirectory) Invalidate(id string) {
	d.mu.Lock()
	delete(d.cache, id)
	d.mu.Unlock()
}
