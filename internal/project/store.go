// Package project persists the editable state of a project: media
// descriptors, tracks, and timeline placements. Render proxies, decoded
// objects, and subscriptions are never written; a loaded project starts with
// every media item pending again and every placement loading, exactly the
// shape a command rebuilds from.
package project

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	_ "modernc.org/sqlite"

	"cutline/internal/config"
	"cutline/internal/media"
	"cutline/internal/services"
	"cutline/internal/source"
	"cutline/internal/timeline"
)

// Store manages project persistence backed by SQLite. A file lock next to
// the database keeps two processes from editing the same project.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open connects to the project database, acquires the project lock, and
// applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.ProjectDir, "project.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !held {
		return nil, services.Wrap(services.ErrPrecondition, "project", "open",
			"project is open in another process", nil)
	}

	dbPath := filepath.Join(cfg.Paths.ProjectDir, "project.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database and the project lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return dbErr
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Save writes the full project state in one transaction, replacing whatever
// was saved before.
func (s *Store) Save(ctx context.Context, library *media.Library, tl *timeline.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"timeline_items", "tracks", "media_items"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, item := range library.Items() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO media_items (
                id, name, created_at, media_type, duration_frames,
                source_kind, file_path, resolved_url, size_bytes, suggested_name
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.Name,
			item.CreatedAt.Format(time.RFC3339Nano),
			string(item.Type),
			item.DurationFrames,
			string(item.Source.Kind),
			item.Source.FilePath,
			item.Source.ResolvedURL,
			item.Source.SizeBytes,
			item.Source.SuggestedName,
		); err != nil {
			return fmt.Errorf("save media item %s: %w", item.ID, err)
		}
	}

	for position, track := range tl.Tracks() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (id, name, kind, visible, muted, position) VALUES (?, ?, ?, ?, ?, ?)`,
			track.ID, track.Name, string(track.Kind), boolToInt(track.Visible), boolToInt(track.Muted), position,
		); err != nil {
			return fmt.Errorf("save track %s: %w", track.ID, err)
		}
	}

	for _, item := range tl.Items() {
		cfgJSON, err := timeline.EncodeConfig(item.Config)
		if err != nil {
			return fmt.Errorf("encode config for item %s: %w", item.ID, err)
		}
		var animJSON []byte
		if item.Animation != nil {
			animJSON, err = timeline.EncodeAnimation(item.Animation)
			if err != nil {
				return fmt.Errorf("encode animation for item %s: %w", item.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO timeline_items (
                id, media_item_id, track_id, media_type,
                timeline_start, timeline_end, clip_start, clip_end,
                config, animation
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.MediaItemID,
			item.TrackID,
			string(item.MediaType),
			item.Range.TimelineStart,
			item.Range.TimelineEnd,
			item.Range.ClipStart,
			item.Range.ClipEnd,
			string(cfgJSON),
			nullableString(animJSON),
		); err != nil {
			return fmt.Errorf("save timeline item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load populates an empty library and timeline store from the database.
// Every media item comes back pending, ready to be re-acquired and decoded;
// a local source whose file has disappeared is marked missing instead.
// Placements come back loading with no runtime state.
func (s *Store) Load(ctx context.Context, library *media.Library, tl *timeline.Store) error {
	if err := s.loadMediaItems(ctx, library); err != nil {
		return err
	}
	if err := s.loadTracks(ctx, tl); err != nil {
		return err
	}
	return s.loadTimelineItems(ctx, tl)
}

func (s *Store) loadMediaItems(ctx context.Context, library *media.Library) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, media_type, duration_frames,
                source_kind, file_path, resolved_url, size_bytes, suggested_name
         FROM media_items`)
	if err != nil {
		return fmt.Errorf("query media items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name, createdAt, mediaType, kind string
			filePath, resolvedURL, suggested    string
			durationFrames, sizeBytes           int64
		)
		if err := rows.Scan(&id, &name, &createdAt, &mediaType, &durationFrames,
			&kind, &filePath, &resolvedURL, &sizeBytes, &suggested); err != nil {
			return fmt.Errorf("scan media item: %w", err)
		}

		var src *source.Data
		if source.Kind(kind) == source.KindLocal {
			src = source.NewLocal(filePath)
		} else {
			src = source.NewRemote(resolvedURL)
			src.FilePath = filePath
		}
		src.SizeBytes = sizeBytes
		src.SuggestedName = suggested

		item := media.NewItem(name, src)
		item.ID = id
		item.Type = media.Type(mediaType)
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			item.CreatedAt = parsed
		}
		if err := library.Add(item); err != nil {
			return fmt.Errorf("restore media item %s: %w", id, err)
		}

		if source.Kind(kind) == source.KindLocal && fileAbsent(filePath) {
			if err := library.MarkMissing(id); err != nil {
				return fmt.Errorf("mark %s missing: %w", id, err)
			}
		}
	}
	return rows.Err()
}

func (s *Store) loadTracks(ctx context.Context, tl *timeline.Store) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, visible, muted FROM tracks ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name, kind  string
			visible, muted  int
		)
		if err := rows.Scan(&id, &name, &kind, &visible, &muted); err != nil {
			return fmt.Errorf("scan track: %w", err)
		}
		track := &timeline.Track{
			ID:      id,
			Name:    name,
			Kind:    timeline.TrackKind(kind),
			Visible: visible != 0,
			Muted:   muted != 0,
		}
		if err := tl.AddTrack(track); err != nil {
			return fmt.Errorf("restore track %s: %w", id, err)
		}
	}
	return rows.Err()
}

func (s *Store) loadTimelineItems(ctx context.Context, tl *timeline.Store) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, media_item_id, track_id, media_type,
                timeline_start, timeline_end, clip_start, clip_end,
                config, animation
         FROM timeline_items`)
	if err != nil {
		return fmt.Errorf("query timeline items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, mediaItemID, trackID, mediaType string
			start, end, clipStart, clipEnd      int64
			cfgJSON                             string
			animJSON                            sql.NullString
		)
		if err := rows.Scan(&id, &mediaItemID, &trackID, &mediaType,
			&start, &end, &clipStart, &clipEnd, &cfgJSON, &animJSON); err != nil {
			return fmt.Errorf("scan timeline item: %w", err)
		}

		cfg, err := timeline.DecodeConfig([]byte(cfgJSON))
		if err != nil {
			return fmt.Errorf("decode config for item %s: %w", id, err)
		}
		timeRange := timeline.TimeRange{
			TimelineStart: start,
			TimelineEnd:   end,
			ClipStart:     clipStart,
			ClipEnd:       clipEnd,
		}
		item := timeline.NewItem(mediaItemID, trackID, media.Type(mediaType), timeRange, cfg)
		item.ID = id
		if animJSON.Valid && animJSON.String != "" {
			anim, err := timeline.DecodeAnimation([]byte(animJSON.String))
			if err != nil {
				return fmt.Errorf("decode animation for item %s: %w", id, err)
			}
			item.Animation = anim
		}
		if err := tl.AddItem(item); err != nil {
			return fmt.Errorf("restore timeline item %s: %w", id, err)
		}
	}
	return rows.Err()
}

func fileAbsent(path string) bool {
	if path == "" {
		return true
	}
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
