package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acrophile/portify/internal/checkpoint"
	"github.com/acrophile/portify/internal/library"
	"github.com/acrophile/portify/internal/models"
	"github.com/acrophile/portify/internal/services"
	"github.com/acrophile/portify/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// RunOptions control a full transfer run.
type RunOptions struct {
	Fresh   bool // discard any existing checkpoint and start over
	Recheck bool // re-search tracks previously confirmed absent
}

// SyncOptions control an incremental sync.
type SyncOptions struct {
	Recheck   bool     // re-search tracks previously confirmed absent
	Playlists []string // restrict to these playlist names; empty means all
}

// wants reports whether the playlist name is selected by the filter.
func (o SyncOptions) wants(name string) bool {
	if len(o.Playlists) == 0 {
		return true
	}
	for _, p := range o.Playlists {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// PlaylistResult summarizes one playlist's outcome within a run.
type PlaylistResult struct {
	SourceID string
	TargetID string
	Name     string
	Status   checkpoint.Status
	Found    int
	NotFound int
	Added    int
	Err      error
}

// RunResult contains all data from a full transfer run.
type RunResult struct {
	Resumed   bool             // run continued from a checkpoint
	Playlists []PlaylistResult // per-playlist outcomes, in processing order
}

// Counts returns the number of completed and failed playlists.
func (r *RunResult) Counts() (completed, failed int) {
	for _, p := range r.Playlists {
		switch p.Status {
		case checkpoint.StatusCompleted:
			completed++
		case checkpoint.StatusFailed:
			failed++
		}
	}
	return completed, failed
}

// Stats aggregates the run into persistable run history counts.
func (r *RunResult) Stats() models.RunStats {
	completed, failed := r.Counts()
	stats := models.RunStats{
		PlaylistsTotal:     len(r.Playlists),
		PlaylistsCompleted: completed,
		PlaylistsFailed:    failed,
	}
	for _, p := range r.Playlists {
		stats.TracksMatched += p.Found
		stats.TracksUnavailable += p.NotFound
	}
	return stats
}

// SyncResult contains all data from an incremental sync.
type SyncResult struct {
	Checked   int              // playlists examined
	Skipped   int              // playlists already fully synced
	Updated   int              // playlists that received changes
	Playlists []PlaylistResult // outcomes for non-skipped playlists
}

// Counts returns the number of updated and failed playlists.
func (r *SyncResult) Counts() (updated, failed int) {
	failed = len(r.Playlists) - r.Updated
	return r.Updated, failed
}

// Stats aggregates the sync into persistable run history counts.
func (r *SyncResult) Stats() models.RunStats {
	_, failed := r.Counts()
	stats := models.RunStats{
		PlaylistsTotal:     r.Checked,
		PlaylistsCompleted: r.Updated + r.Skipped,
		PlaylistsFailed:    failed,
		PlaylistsSkipped:   r.Skipped,
	}
	for _, p := range r.Playlists {
		stats.TracksMatched += p.Found
		stats.TracksUnavailable += p.NotFound
	}
	return stats
}

// Engine orchestrates playlist migration between a source and target service.
// All remote access is single-threaded and throttled; durability comes from
// the checkpoint store and track library, both rewritten after every batch.
type Engine struct {
	source      services.SourceService
	target      services.TargetService
	library     *library.Library
	checkpoints *checkpoint.Store
	resolver    *PlaylistResolver
	limiter     *rate.Limiter
	cfg         shared.TransferConfig
	logger      *log.Logger

	// pause is the interruptible sleep used for all cooperative delays;
	// replaced in tests to avoid real waiting.
	pause func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an Engine over the given services and stores.
func NewEngine(source services.SourceService, target services.TargetService,
	lib *library.Library, store *checkpoint.Store, cfg shared.TransferConfig, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	throttle := time.Duration(cfg.SearchThrottle) * time.Millisecond
	if throttle <= 0 {
		throttle = 1500 * time.Millisecond
	}

	return &Engine{
		source:      source,
		target:      target,
		library:     lib,
		checkpoints: store,
		resolver:    NewPlaylistResolver(target),
		limiter:     rate.NewLimiter(rate.Every(throttle), 1),
		cfg:         cfg,
		logger:      logger,
		pause:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) platform() string {
	return strings.ToLower(e.target.Name())
}

func (e *Engine) batchSize() int {
	if e.cfg.BatchSize > 0 {
		return e.cfg.BatchSize
	}
	return 50
}

func (e *Engine) batchDelay() time.Duration {
	return time.Duration(e.cfg.BatchDelay) * time.Millisecond
}

func (e *Engine) playlistDelay() time.Duration {
	return time.Duration(e.cfg.PlaylistDelay) * time.Millisecond
}

// Run performs a full source → target transfer of every owned playlist,
// resuming from a checkpoint when one exists. A failed playlist is marked in
// the checkpoint and the run moves on; the checkpoint is cleared only when
// every playlist completed.
func (e *Engine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.source == nil || e.target == nil {
		return nil, fmt.Errorf("%w: transfer services not initialized", shared.ErrServiceUnavailable)
	}

	userID, err := e.source.CurrentUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving source account: %w", err)
	}

	var state *checkpoint.State
	if opts.Fresh {
		if err := e.checkpoints.Clear(); err != nil {
			return nil, err
		}
	} else {
		state = e.checkpoints.Load()
		if state != nil && state.SourceUserID != userID {
			e.logger.Warn("checkpoint belongs to a different account, starting fresh",
				"checkpoint_user", state.SourceUserID, "current_user", userID)
			state = nil
		}
	}

	result := &RunResult{}
	if state == nil {
		e.sendProgress(progress, fetchPlaylistsUpdate(e.source.Name()))
		playlists, err := e.source.ListOwnedPlaylists(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing source playlists: %w", err)
		}

		entries := make([]*checkpoint.PlaylistProgress, 0, len(playlists))
		for _, pl := range playlists {
			entries = append(entries, &checkpoint.PlaylistProgress{
				SourcePlaylistID: pl.ID,
				Name:             pl.Name,
				TotalTracks:      pl.TrackCount,
				Status:           checkpoint.StatusPending,
			})
		}

		state = e.checkpoints.Init(userID, entries)
		if err := e.checkpoints.Save(state); err != nil {
			return nil, err
		}
	} else {
		result.Resumed = true
		completed, failed, remaining := state.Counts()
		e.logger.Info("resuming from checkpoint",
			"completed", completed, "failed", failed, "remaining", remaining)
	}

	total := len(state.Playlists)
	processed := 0
	for i, p := range state.Playlists {
		if p.Status == checkpoint.StatusCompleted {
			continue
		}

		if processed > 0 {
			if err := e.pause(ctx, e.playlistDelay()); err != nil {
				return result, err
			}
		}
		processed++

		if result.Resumed && p.ProcessedTracks > 0 {
			e.sendProgress(progress, resumeUpdate(p.ProcessedTracks, p.TotalTracks, p.Name))
		}

		found, notFound := p.Found, p.NotFound
		err := e.transferPlaylist(ctx, state, p, opts, progress, i+1, total)
		pr := PlaylistResult{
			SourceID: p.SourcePlaylistID,
			TargetID: p.TargetPlaylistID,
			Name:     p.Name,
			Status:   p.Status,
			Found:    p.Found - found,
			NotFound: p.NotFound - notFound,
		}

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.checkpoints.Save(state)
				e.library.Persist()
				return result, err
			}

			p.Status = checkpoint.StatusFailed
			pr.Status = checkpoint.StatusFailed
			pr.Err = err
			e.logger.Error("playlist transfer failed", "playlist", p.Name, "err", err)
			e.sendProgress(progress, playlistFailedUpdate(i+1, total, p.Name, err))
		} else {
			e.sendProgress(progress, playlistDoneUpdate(i+1, total, p.Name, pr.Found, pr.NotFound))
		}

		result.Playlists = append(result.Playlists, pr)
		if err := e.checkpoints.Save(state); err != nil {
			return result, err
		}
	}

	if err := e.library.Persist(); err != nil {
		return result, err
	}

	if state.Completed() {
		if err := e.checkpoints.Clear(); err != nil {
			return result, err
		}
	}

	return result, nil
}

// transferPlaylist moves one playlist through fetch, resolve, match, and
// batched write phases. The target playlist id is checkpointed before any
// track write so an interrupted run never creates a duplicate playlist.
func (e *Engine) transferPlaylist(ctx context.Context, state *checkpoint.State,
	p *checkpoint.PlaylistProgress, opts RunOptions, progress chan<- ProgressUpdate, step, total int) error {
	e.sendProgress(progress, fetchTracksUpdate(step, total, p.Name))

	tracks, err := e.source.ListPlaylistTracks(ctx, p.SourcePlaylistID)
	if err != nil {
		return fmt.Errorf("fetching source tracks: %w", err)
	}

	p.TotalTracks = len(tracks)
	for _, tr := range tracks {
		e.library.RecordTrack(tr, p.SourcePlaylistID)
	}

	if len(tracks) == 0 {
		p.Status = checkpoint.StatusCompleted
		return nil
	}

	p.Status = checkpoint.StatusInProgress

	if p.TargetPlaylistID == "" {
		e.sendProgress(progress, resolveTargetUpdate(p.Name, e.target.Name()))
		id, created, err := e.resolver.ResolveOrCreate(ctx, p.Name,
			fmt.Sprintf("Migrated from %s", e.source.Name()))
		if err != nil {
			return err
		}

		p.TargetPlaylistID = id
		if err := e.checkpoints.Save(state); err != nil {
			return err
		}

		if created {
			e.logger.Debug("created target playlist", "name", p.Name, "id", id)
		}
	}

	existing, err := e.targetTrackSet(ctx, p.TargetPlaylistID)
	if err != nil {
		return err
	}

	size := e.batchSize()
	for start := p.ProcessedTracks; start < len(tracks); start += size {
		end := start + size
		if end > len(tracks) {
			end = len(tracks)
		}

		var ids []string
		var found, notFound int
		for i, tr := range tracks[start:end] {
			targetID, ok, err := e.matchTrack(ctx, tr, opts.Recheck, progress, start+i+1, len(tracks))
			if err != nil {
				return err
			}
			if !ok {
				notFound++
				continue
			}

			found++
			if _, dup := existing[targetID]; dup {
				continue
			}
			ids = append(ids, targetID)
		}

		if len(ids) > 0 {
			e.sendProgress(progress, writeBatchUpdate(end, len(tracks), len(ids)))
			if err := e.addWithRetry(ctx, p.TargetPlaylistID, ids); err != nil {
				return err
			}
			for _, id := range ids {
				existing[id] = struct{}{}
			}
		}

		// progress only advances past tracks whose writes landed
		p.ProcessedTracks = end
		p.Found += found
		p.NotFound += notFound
		if err := e.checkpoints.Save(state); err != nil {
			return err
		}
		if err := e.library.Persist(); err != nil {
			return err
		}

		if end < len(tracks) {
			if err := e.pause(ctx, e.batchDelay()); err != nil {
				return err
			}
		}
	}

	p.Status = checkpoint.StatusCompleted
	return nil
}

// matchTrack resolves a source track to a target track id, consulting the
// library before spending a remote search. A transient search failure leaves
// the track pending for the next run instead of aborting the playlist.
func (e *Engine) matchTrack(ctx context.Context, tr services.Track, recheck bool,
	progress chan<- ProgressUpdate, step, total int) (string, bool, error) {
	platform := e.platform()

	rec, ok := e.library.Track(tr.ID)
	if ok {
		link := rec.Link(platform)
		switch {
		case link.Available != nil && *link.Available && link.ID != "":
			return link.ID, true, nil
		case link.Available != nil && !*link.Available && !recheck:
			return "", false, nil
		}
	}

	e.sendProgress(progress, searchTrackUpdate(step, total, tr.Artist, tr.Title))
	if err := e.limiter.Wait(ctx); err != nil {
		return "", false, err
	}

	match, err := e.target.SearchTrack(ctx, tr.Title, tr.Artist)
	if err != nil {
		if shared.IsTransient(err) {
			e.logger.Warn("track search failed, leaving pending",
				"track", tr.Title, "artist", tr.Artist, "err", err)
			return "", false, nil
		}
		return "", false, fmt.Errorf("searching for '%s': %w", tr.Title, err)
	}

	if match == nil {
		e.library.SetMatch(platform, tr.ID, "", false)
		return "", false, nil
	}

	e.library.SetMatch(platform, tr.ID, match.ID, true)
	return match.ID, true, nil
}

// addWithRetry writes one batch of track ids, retrying transient failures up
// to the configured limit with the batch delay between attempts.
func (e *Engine) addWithRetry(ctx context.Context, playlistID string, ids []string) error {
	attempts := e.cfg.MaxBatchRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = e.target.AddTracks(ctx, playlistID, ids)
		if lastErr == nil {
			return nil
		}
		if !shared.IsTransient(lastErr) {
			break
		}

		e.logger.Warn("batch write failed", "attempt", attempt, "of", attempts, "err", lastErr)
		if attempt < attempts {
			if err := e.pause(ctx, e.batchDelay()); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%w: adding %d tracks to %s: %v", shared.ErrBatchFailed, len(ids), playlistID, lastErr)
}

func (e *Engine) targetTrackSet(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	tracks, err := e.target.ListPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("fetching target tracks: %w", err)
	}

	set := make(map[string]struct{}, len(tracks))
	for _, tr := range tracks {
		set[tr.ID] = struct{}{}
	}
	return set, nil
}

// Sync reconciles every owned source playlist against the library and target:
// membership additions are recorded, already-synced playlists are skipped
// without touching the target service, and only unsynced tracks are searched
// and written.
func (e *Engine) Sync(ctx context.Context, opts SyncOptions, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.source == nil || e.target == nil {
		return nil, fmt.Errorf("%w: transfer services not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(e.source.Name()))
	playlists, err := e.source.ListOwnedPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source playlists: %w", err)
	}

	platform := e.platform()
	result := &SyncResult{}
	total := len(playlists)

	for i, pl := range playlists {
		if !opts.wants(pl.Name) {
			continue
		}
		if i > 0 {
			if err := e.pause(ctx, e.playlistDelay()); err != nil {
				return result, err
			}
		}

		e.sendProgress(progress, fetchTracksUpdate(i+1, total, pl.Name))
		tracks, err := e.source.ListPlaylistTracks(ctx, pl.ID)
		if err != nil {
			e.logger.Error("failed to fetch playlist, skipping", "playlist", pl.Name, "err", err)
			result.Playlists = append(result.Playlists, PlaylistResult{
				SourceID: pl.ID, Name: pl.Name, Status: checkpoint.StatusFailed, Err: err,
			})
			continue
		}

		for _, tr := range tracks {
			e.library.RecordTrack(tr, pl.ID)
		}
		result.Checked++

		if !opts.Recheck && e.library.IsPlaylistSynced(pl.ID, platform) {
			result.Skipped++
			e.sendProgress(progress, playlistSkippedUpdate(i+1, total, pl.Name))
			continue
		}

		pr, err := e.syncPlaylist(ctx, pl, opts, progress, i+1, total)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.library.Persist()
				return result, err
			}

			e.logger.Error("playlist sync failed", "playlist", pl.Name, "err", err)
			e.sendProgress(progress, playlistFailedUpdate(i+1, total, pl.Name, err))
			pr.Status = checkpoint.StatusFailed
			pr.Err = err
			result.Playlists = append(result.Playlists, pr)
			continue
		}

		result.Updated++
		result.Playlists = append(result.Playlists, pr)
		e.sendProgress(progress, playlistDoneUpdate(i+1, total, pl.Name, pr.Found, pr.NotFound))
	}

	if err := e.library.Persist(); err != nil {
		return result, err
	}

	return result, nil
}

// syncPlaylist searches the playlist's unsynced tracks and writes everything
// the target playlist is missing, including previously matched tracks that
// were never added to it.
func (e *Engine) syncPlaylist(ctx context.Context, pl services.Playlist,
	opts SyncOptions, progress chan<- ProgressUpdate, step, total int) (PlaylistResult, error) {
	platform := e.platform()
	pr := PlaylistResult{SourceID: pl.ID, Name: pl.Name, Status: checkpoint.StatusCompleted}

	targetID, created, err := e.resolver.ResolveOrCreate(ctx, pl.Name,
		fmt.Sprintf("Migrated from %s", e.source.Name()))
	if err != nil {
		return pr, err
	}
	pr.TargetID = targetID
	if created {
		e.logger.Debug("created target playlist", "name", pl.Name, "id", targetID)
	}

	existing, err := e.targetTrackSet(ctx, targetID)
	if err != nil {
		return pr, err
	}

	unsynced := e.library.UnsyncedTracks(pl.ID, platform, opts.Recheck)
	var ids []string
	for i, rec := range unsynced {
		tr := services.Track{ID: rec.SpotifyID, Title: rec.TrackName, Artist: rec.ArtistName, Album: rec.AlbumName}
		targetTrackID, ok, err := e.matchTrack(ctx, tr, opts.Recheck, progress, i+1, len(unsynced))
		if err != nil {
			return pr, err
		}
		if !ok {
			pr.NotFound++
			continue
		}

		pr.Found++
		if _, dup := existing[targetTrackID]; !dup {
			ids = append(ids, targetTrackID)
		}
	}

	// matched tracks the target playlist never received
	for _, rec := range e.library.TracksForPlaylist(pl.ID) {
		link := rec.Link(platform)
		if link.Available == nil || !*link.Available || link.ID == "" {
			continue
		}
		if _, dup := existing[link.ID]; dup {
			continue
		}

		duplicate := false
		for _, id := range ids {
			if id == link.ID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			ids = append(ids, link.ID)
		}
	}

	size := e.batchSize()
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}

		e.sendProgress(progress, writeBatchUpdate(end, len(ids), end-start))
		if err := e.addWithRetry(ctx, targetID, ids[start:end]); err != nil {
			return pr, err
		}
		pr.Added += end - start

		if end < len(ids) {
			if err := e.pause(ctx, e.batchDelay()); err != nil {
				return pr, err
			}
		}
	}

	return pr, nil
}
