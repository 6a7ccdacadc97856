package project_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cutline/internal/logging"
	"cutline/internal/media"
	"cutline/internal/project"
	"cutline/internal/services"
	"cutline/internal/source"
	"cutline/internal/testsupport"
	"cutline/internal/timeline"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProject(t, cfg)
	logger := logging.NewNop()
	ctx := context.Background()

	library := media.NewLibrary(logger)
	tl := timeline.NewStore(logger)

	mediaPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteMediaFile(t, mediaPath, 2048)
	mediaItem := media.NewItem("Clip", source.NewLocal(mediaPath))
	mediaItem.Type = media.TypeVideo
	mediaItem.DurationFrames = 120
	if err := library.Add(mediaItem); err != nil {
		t.Fatalf("add media: %v", err)
	}

	track := timeline.NewTrack("Video 1", timeline.TrackKindVideo)
	track.Muted = true
	if err := tl.AddTrack(track); err != nil {
		t.Fatalf("add track: %v", err)
	}

	cfgVideo := timeline.DefaultConfig(media.TypeVideo).(timeline.VideoConfig)
	cfgVideo.Transform.X = 15
	item := timeline.NewItem(mediaItem.ID, track.ID, media.TypeVideo,
		timeline.TimeRange{TimelineStart: 5, TimelineEnd: 125, ClipStart: 0, ClipEnd: 120}, cfgVideo)
	item.Animation = &timeline.Animation{
		Enabled:   true,
		Keyframes: []timeline.Keyframe{{Frame: 10, Visual: &timeline.VisualProps{X: 3, ScaleX: 1, ScaleY: 1, Opacity: 1}}},
	}
	if err := tl.AddItem(item); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := store.Save(ctx, library, tl); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadedLibrary := media.NewLibrary(logger)
	loadedTimeline := timeline.NewStore(logger)
	if err := store.Load(ctx, loadedLibrary, loadedTimeline); err != nil {
		t.Fatalf("load: %v", err)
	}

	restoredMedia := loadedLibrary.Get(mediaItem.ID)
	if restoredMedia == nil {
		t.Fatal("media item not restored")
	}
	if restoredMedia.Status != media.StatusPending {
		t.Errorf("restored media status = %s, want pending", restoredMedia.Status)
	}
	if restoredMedia.Decoded != nil {
		t.Error("decoded objects must not be persisted")
	}
	if restoredMedia.Source.FilePath != mediaPath {
		t.Errorf("restored path = %q, want %q", restoredMedia.Source.FilePath, mediaPath)
	}

	restoredTrack := loadedTimeline.GetTrack(track.ID)
	if restoredTrack == nil {
		t.Fatal("track not restored")
	}
	if !restoredTrack.Muted || restoredTrack.Name != "Video 1" {
		t.Errorf("restored track = %+v", restoredTrack)
	}

	restoredItem := loadedTimeline.GetItem(item.ID)
	if restoredItem == nil {
		t.Fatal("timeline item not restored")
	}
	if restoredItem.Status != timeline.ItemStatusLoading {
		t.Errorf("restored item status = %s, want loading", restoredItem.Status)
	}
	if restoredItem.Runtime.Proxy != nil {
		t.Error("runtime proxy must not be persisted")
	}
	if restoredItem.Range != item.Range {
		t.Errorf("restored range = %+v, want %+v", restoredItem.Range, item.Range)
	}
	gotCfg, ok := restoredItem.Config.(timeline.VideoConfig)
	if !ok {
		t.Fatalf("restored config has type %T", restoredItem.Config)
	}
	if gotCfg.Transform.X != 15 {
		t.Errorf("restored transform x = %v, want 15", gotCfg.Transform.X)
	}
	if restoredItem.Animation == nil || len(restoredItem.Animation.Keyframes) != 1 {
		t.Errorf("restored animation = %+v", restoredItem.Animation)
	}
}

func TestLoadMarksAbsentLocalFilesMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProject(t, cfg)
	logger := logging.NewNop()
	ctx := context.Background()

	library := media.NewLibrary(logger)
	tl := timeline.NewStore(logger)

	gone := media.NewItem("Gone", source.NewLocal(filepath.Join(t.TempDir(), "deleted.mp4")))
	if err := library.Add(gone); err != nil {
		t.Fatalf("add media: %v", err)
	}
	remote := media.NewItem("Remote", source.NewRemote("https://example.com/a.mp4"))
	if err := library.Add(remote); err != nil {
		t.Fatalf("add media: %v", err)
	}

	if err := store.Save(ctx, library, tl); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := media.NewLibrary(logger)
	if err := store.Load(ctx, loaded, timeline.NewStore(logger)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := loaded.Get(gone.ID).Status; got != media.StatusMissing {
		t.Errorf("absent local file: status = %s, want missing", got)
	}
	if got := loaded.Get(remote.ID).Status; got != media.StatusPending {
		t.Errorf("remote item: status = %s, want pending", got)
	}
}

func TestSaveReplacesPreviousState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProject(t, cfg)
	logger := logging.NewNop()
	ctx := context.Background()

	library := media.NewLibrary(logger)
	tl := timeline.NewStore(logger)
	track := timeline.NewTrack("First", timeline.TrackKindVideo)
	if err := tl.AddTrack(track); err != nil {
		t.Fatalf("add track: %v", err)
	}
	if err := store.Save(ctx, library, tl); err != nil {
		t.Fatalf("first save: %v", err)
	}

	if err := tl.RemoveTrack(track.ID); err != nil {
		t.Fatalf("remove track: %v", err)
	}
	replacement := timeline.NewTrack("Second", timeline.TrackKindAudio)
	if err := tl.AddTrack(replacement); err != nil {
		t.Fatalf("add replacement: %v", err)
	}
	if err := store.Save(ctx, library, tl); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded := timeline.NewStore(logger)
	if err := store.Load(ctx, media.NewLibrary(logger), loaded); err != nil {
		t.Fatalf("load: %v", err)
	}
	tracks := loaded.Tracks()
	if len(tracks) != 1 || tracks[0].Name != "Second" {
		t.Errorf("tracks = %+v, want only Second", tracks)
	}
}

func TestOpenRefusesSecondProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := project.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	defer first.Close()

	if _, err := project.Open(cfg); !errors.Is(err, services.ErrPrecondition) {
		t.Errorf("second open: err = %v, want precondition", err)
	}
}
