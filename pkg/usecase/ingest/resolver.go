package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/tubenote/pkg/model"
	"github.com/m-mizutani/tubenote/pkg/repository"
	"github.com/m-mizutani/tubenote/pkg/utils/logging"
)

// Resolver maps free-text entity names to entity page IDs, creating the
// entity when no existing record matches by name or alias.
//
// Results are memoized for the lifetime of the resolver, keyed by the
// trimmed name. Failed resolutions are cached as well, so a name issues at
// most one lookup and at most one create per run. The store has no unique
// constraint on names, so resolution must stay sequential per name; the
// resolver is not safe for concurrent use.
type Resolver struct {
	repo  repository.Knowledge
	cache map[string]model.EntityID
}

func NewResolver(repo repository.Knowledge) *Resolver {
	return &Resolver{
		repo:  repo,
		cache: make(map[string]model.EntityID),
	}
}

// Resolve returns the entity ID for name. ok is false when the name is
// blank or when both lookup and creation failed; the caller simply omits
// the relation in that case.
func (r *Resolver) Resolve(ctx context.Context, name string) (model.EntityID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		logging.From(ctx).Warn("empty entity name provided")
		return "", false
	}

	if id, hit := r.cache[name]; hit {
		return id, id != ""
	}

	id := r.resolve(ctx, name)
	r.cache[name] = id
	return id, id != ""
}

func (r *Resolver) resolve(ctx context.Context, name string) model.EntityID {
	logger := logging.From(ctx)

	id, err := r.repo.FindEntity(ctx, name)
	if err == nil {
		logger.Debug("resolved existing entity", "name", name, "entity_id", id)
		return id
	}

	// A lookup failure falls through to creation, same as not-found. Worst
	// case is a duplicate entity, which the knowledge base tolerates.
	if !errors.Is(err, repository.ErrEntityNotFound) {
		logger.Warn("entity lookup failed, falling back to creation", "name", name, "error", err)
	}

	created, err := r.repo.CreateEntity(ctx, name)
	if err != nil {
		logger.Error("entity creation failed", "name", name, "error", err)
		return ""
	}

	logger.Info("created entity", "name", name, "entity_id", created)
	return created
}
