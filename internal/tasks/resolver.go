package tasks

import (
	"context"
	"fmt"

	"github.com/acrophile/portify/internal/services"
	"github.com/acrophile/portify/internal/shared"
)

// PlaylistResolver maps source playlist names to target playlist ids through
// a name-keyed cache built from a single target listing call. Every resolve
// after the first listing is a map lookup, so a run over N playlists costs
// one listing plus at most N creates.
//
// Names are matched exactly. If the target account has duplicate playlist
// names, the last one listed wins.
type PlaylistResolver struct {
	target services.TargetService
	cache  map[string]string
	built  bool
}

// NewPlaylistResolver returns a resolver over the target service.
func NewPlaylistResolver(target services.TargetService) *PlaylistResolver {
	return &PlaylistResolver{
		target: target,
		cache:  make(map[string]string),
	}
}

// BuildCache lists the target account's playlists once and indexes them by
// name. Subsequent calls are no-ops.
func (r *PlaylistResolver) BuildCache(ctx context.Context) error {
	if r.built {
		return nil
	}

	playlists, err := r.target.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("listing target playlists: %w", err)
	}

	for _, pl := range playlists {
		r.cache[pl.Name] = pl.ID
	}
	r.built = true
	return nil
}

// FindExisting returns the target playlist id for a name, or
// shared.ErrPlaylistNotFound if the target account has no playlist by that
// name. Builds the cache on first use.
func (r *PlaylistResolver) FindExisting(ctx context.Context, name string) (string, error) {
	if err := r.BuildCache(ctx); err != nil {
		return "", err
	}

	id, ok := r.cache[name]
	if !ok {
		return "", fmt.Errorf("%w: no target playlist named '%s'", shared.ErrPlaylistNotFound, name)
	}
	return id, nil
}

// ResolveOrCreate returns the target playlist id for a name, creating the
// playlist when none exists. The second return reports whether a playlist was
// created. Created playlists are registered in the cache so a later resolve
// for the same name does not create a duplicate.
func (r *PlaylistResolver) ResolveOrCreate(ctx context.Context, name, description string) (string, bool, error) {
	if err := r.BuildCache(ctx); err != nil {
		return "", false, err
	}

	if id, ok := r.cache[name]; ok {
		return id, false, nil
	}

	id, err := r.target.CreatePlaylist(ctx, name, description)
	if err != nil {
		return "", false, fmt.Errorf("creating target playlist '%s': %w", name, err)
	}

	r.cache[name] = id
	return id, true, nil
}
