package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/dispatch"
	"github.com/oukeidos/iconic/internal/remote"
	"github.com/oukeidos/iconic/internal/selection"
	"github.com/oukeidos/iconic/internal/testutil"
)

var christmas = time.Date(2024, time.December, 24, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *stubFetcher) Fetch(context.Context, string) (remote.Download, error) {
	f.calls++
	if f.err != nil {
		return remote.Download{}, f.err
	}
	return remote.Download{Data: f.data, ContentType: "image/png"}, nil
}

type fixture struct {
	svc     *Service
	paths   config.Paths
	fetcher *stubFetcher
	draws   []int
}

func newFixture(t *testing.T, cfg *config.Config, icons ...string) *fixture {
	t.Helper()
	paths := config.NewPaths(filepath.Join(t.TempDir(), "data"))
	for _, name := range icons {
		testutil.WriteIcon(t, paths.Icons, name, testutil.Red)
	}
	if cfg != nil {
		if err := config.Save(paths.Config, *cfg); err != nil {
			t.Fatalf("save config: %v", err)
		}
	}
	f := &fixture{paths: paths, fetcher: &stubFetcher{}}
	svc, err := Open(context.Background(), Options{
		Paths:   paths,
		Fetcher: f.fetcher,
		Selector: selection.NewSelectorWithRand(func(n int) int {
			if len(f.draws) == 0 {
				return 0
			}
			v := f.draws[0]
			f.draws = f.draws[1:]
			return v % n
		}),
		Now: func() time.Time { return christmas },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(svc.Close)
	f.svc = svc
	return f
}

func (f *fixture) selectName(t *testing.T) string {
	t.Helper()
	icon, err := f.svc.Select(context.Background(), christmas)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if icon == nil {
		return ""
	}
	return icon.Name
}

func (f *fixture) tick(t *testing.T) {
	t.Helper()
	if err := f.svc.loop.Do(context.Background(), f.svc.tick); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func (s *Service) cursorForTest(t *testing.T) int {
	t.Helper()
	cursor := 0
	if err := s.loop.Do(context.Background(), func() { cursor = s.cursor }); err != nil {
		t.Fatalf("read cursor: %v", err)
	}
	return cursor
}

func (f *fixture) savedConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(f.paths.Config)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestOpen_IngestsDropFolderBeforeFirstScan(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), "data"))
	testutil.WriteFile(t, paths.Input, "photo.jpg", testutil.JPEG(t, 200, 100, testutil.Blue))

	svc, err := Open(context.Background(), Options{Paths: paths, Fetcher: &stubFetcher{}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.Close()

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "photo.png" {
		t.Fatalf("List() = %+v", list)
	}
}

func TestCycle_FirstTickThenAlternates(t *testing.T) {
	f := newFixture(t, nil, "a.png", "b.png")
	if err := f.svc.StartRotation(context.Background()); err != nil {
		t.Fatalf("StartRotation: %v", err)
	}
	want := []string{"a.png", "b.png", "a.png"}
	for i, name := range want {
		if i > 0 {
			f.tick(t)
		}
		if got := f.selectName(t); got != name {
			t.Fatalf("step %d: selected %q, want %q", i, got, name)
		}
	}
	st, err := f.svc.Status(context.Background())
	if err != nil || !st.Rotating {
		t.Fatalf("expected running rotation, got %+v err=%v", st, err)
	}
}

func TestCycle_NTicksWrap(t *testing.T) {
	f := newFixture(t, nil, "a.png", "b.png", "c.png")
	names := []string{"a.png", "b.png", "c.png"}
	for n := 1; n <= 7; n++ {
		f.tick(t)
		if got, want := f.selectName(t), names[(n-1)%3]; got != want {
			t.Fatalf("after %d ticks selected %q, want %q", n, got, want)
		}
	}
}

func TestRefresh_EmptyCatalogResetsCursor(t *testing.T) {
	f := newFixture(t, nil, "a.png", "b.png")
	f.tick(t)
	f.tick(t)
	for _, name := range []string{"a.png", "b.png"} {
		if err := os.Remove(filepath.Join(f.paths.Icons, name)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := f.svc.Refresh(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("Refresh() = (%d, %v)", n, err)
	}
	if got := f.selectName(t); got != "" {
		t.Fatalf("expected no icon, got %q", got)
	}
	f.tick(t)
	if f.svc.cursorForTest(t) != -1 {
		t.Fatalf("cursor should stay unset on an empty catalog")
	}

	testutil.WriteIcon(t, f.paths.Icons, "z.png", testutil.Green)
	if _, err := f.svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.tick(t)
	if got := f.selectName(t); got != "z.png" {
		t.Fatalf("expected rotation to restart at z.png, got %q", got)
	}
}

func TestRefresh_KeepsCurrentByName(t *testing.T) {
	f := newFixture(t, nil, "b.png", "c.png")
	f.tick(t)
	f.tick(t) // current = c.png, index 1
	testutil.WriteIcon(t, f.paths.Icons, "a.png", testutil.Blue)
	if _, err := f.svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.selectName(t); got != "c.png" {
		t.Fatalf("current should follow its file, got %q", got)
	}
	if f.svc.cursorForTest(t) != 2 {
		t.Fatalf("cursor should move to c.png's new index")
	}
}

func TestSetMode_NoStaleIcon(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultIcon = "a.png"
	f := newFixture(t, &cfg, "a.png", "b.png", "c.png")
	ctx := context.Background()

	if err := f.svc.StartRotation(ctx); err != nil {
		t.Fatal(err)
	}
	f.tick(t) // b.png
	if got := f.selectName(t); got != "b.png" {
		t.Fatalf("cycle selected %q", got)
	}

	if _, err := f.svc.SetMode(ctx, "static"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := f.selectName(t); got != "a.png" {
		t.Fatalf("static must return the default, got %q", got)
	}
	if st, _ := f.svc.Status(ctx); st.Rotating {
		t.Fatalf("rotation must stop outside cycle mode")
	}

	f.draws = []int{2}
	if _, err := f.svc.SetMode(ctx, "random"); err != nil {
		t.Fatal(err)
	}
	if got := f.selectName(t); got != "c.png" {
		t.Fatalf("random selected %q, want c.png", got)
	}

	if _, err := f.svc.SetMode(ctx, "cycle"); err != nil {
		t.Fatal(err)
	}
	if st, _ := f.svc.Status(ctx); !st.Rotating {
		t.Fatalf("rotation must resume in cycle mode")
	}
	if got := f.savedConfig(t).Mode; got != "cycle" {
		t.Fatalf("persisted mode = %q", got)
	}
}

func TestSetMode_Invalid(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.SetMode(context.Background(), "shuffle"); !apperrors.Is(err, apperrors.KindInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	mode, err := f.svc.SetMode(context.Background(), "per-ping-random")
	if err != nil || mode != selection.ModePerQueryRandom {
		t.Fatalf("legacy alias: (%q, %v)", mode, err)
	}
}

func TestOverrideBeatsEveryMode(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultIcon = "a.png"
	f := newFixture(t, &cfg, "a.png", "b.png", "xmas.png")
	ctx := context.Background()

	key, name, err := f.svc.AddDateIcon(ctx, "24.12", "xmas.png")
	if err != nil || key != "24.12" || name != "xmas.png" {
		t.Fatalf("AddDateIcon() = (%q, %q, %v)", key, name, err)
	}
	for _, mode := range selection.Modes {
		if _, err := f.svc.SetMode(ctx, string(mode)); err != nil {
			t.Fatal(err)
		}
		f.tick(t)
		if got := f.selectName(t); got != "xmas.png" {
			t.Fatalf("mode %s selected %q, want override", mode, got)
		}
	}
	if got := f.savedConfig(t).DateIcons; !reflect.DeepEqual(got, map[string]string{"24.12": "xmas.png"}) {
		t.Fatalf("persisted overrides = %v", got)
	}
}

func TestAddDateIcon_ResolvesIndex(t *testing.T) {
	f := newFixture(t, nil, "a.png", "b.png")
	key, name, err := f.svc.AddDateIcon(context.Background(), "1.4", "1")
	if err != nil || key != "01.04" || name != "b.png" {
		t.Fatalf("AddDateIcon() = (%q, %q, %v)", key, name, err)
	}
	if _, _, err := f.svc.AddDateIcon(context.Background(), "30.02", "a.png"); !apperrors.Is(err, apperrors.KindInvalidArgument) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, _, err := f.svc.AddDateIcon(context.Background(), "01.05", "9"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveDateIcon(t *testing.T) {
	f := newFixture(t, nil, "a.png")
	ctx := context.Background()
	if removed, err := f.svc.RemoveDateIcon(ctx, "24.12"); err != nil || removed {
		t.Fatalf("absent key: (%v, %v)", removed, err)
	}
	if _, _, err := f.svc.AddDateIcon(ctx, "24.12", "a.png"); err != nil {
		t.Fatal(err)
	}
	if removed, err := f.svc.RemoveDateIcon(ctx, "24.12"); err != nil || !removed {
		t.Fatalf("present key: (%v, %v)", removed, err)
	}
	if got := f.savedConfig(t).DateIcons; len(got) != 0 {
		t.Fatalf("override still persisted: %v", got)
	}
}

func TestStaticWithoutDefaultYieldsNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "static"
	f := newFixture(t, &cfg)
	if got := f.selectName(t); got != "" {
		t.Fatalf("expected no icon, got %q", got)
	}
}

func TestDanglingDefaultDegrades(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "static"
	cfg.DefaultIcon = "gone.png"
	f := newFixture(t, &cfg, "a.png")
	if got := f.selectName(t); got != "" {
		t.Fatalf("dangling default must yield no icon, got %q", got)
	}
	st, err := f.svc.Status(context.Background())
	if err != nil || st.DefaultIcon != "gone.png" || st.DefaultAvailable {
		t.Fatalf("unexpected status %+v err=%v", st, err)
	}

	testutil.WriteIcon(t, f.paths.Icons, "gone.png", testutil.Blue)
	if _, err := f.svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.selectName(t); got != "gone.png" {
		t.Fatalf("default should resolve after refresh, got %q", got)
	}
}

func TestSetDefault(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "static"
	f := newFixture(t, &cfg, "a.png", "b.png")
	name, err := f.svc.SetDefault(context.Background(), "1")
	if err != nil || name != "b.png" {
		t.Fatalf("SetDefault() = (%q, %v)", name, err)
	}
	if got := f.selectName(t); got != "b.png" {
		t.Fatalf("selected %q", got)
	}
	if got := f.savedConfig(t).DefaultIcon; got != "b.png" {
		t.Fatalf("persisted default = %q", got)
	}
	if _, err := f.svc.SetDefault(context.Background(), "missing.png"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetInterval(t *testing.T) {
	f := newFixture(t, nil, "a.png")
	ctx := context.Background()
	if err := f.svc.SetInterval(ctx, 0); !apperrors.Is(err, apperrors.KindInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := f.svc.StartRotation(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SetInterval(ctx, 60); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	st, _ := f.svc.Status(ctx)
	if st.IntervalSeconds != 60 || !st.Rotating {
		t.Fatalf("unexpected status %+v", st)
	}
	if f.svc.scheduler.Interval() != time.Minute {
		t.Fatalf("scheduler interval = %v", f.svc.scheduler.Interval())
	}
	if got := f.savedConfig(t).RotationInterval; got != 60 {
		t.Fatalf("persisted interval = %d", got)
	}
}

func TestList(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultIcon = "b.png"
	cfg.DateIcons = map[string]string{"24.12": "a.png", "01.01": "a.png"}
	f := newFixture(t, &cfg, "a.png", "b.png")
	f.tick(t)

	list, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []ListEntry{
		{Index: 0, Name: "a.png", Current: true, Dates: []string{"01.01", "24.12"}},
		{Index: 1, Name: "b.png", Default: true},
	}
	if !reflect.DeepEqual(list, want) {
		t.Fatalf("List() = %+v, want %+v", list, want)
	}
}

func TestDownload(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.data = testutil.PNG(t, 32, 32, testutil.Green)
	ctx := context.Background()

	res, err := f.svc.Download(ctx, "https://example.com/x.png", "")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	wantName := "downloaded_1735041600000.png"
	if res.Name != wantName || !res.Resized {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = f.svc.Download(ctx, "https://example.com/x.png", "")
	if err != nil {
		t.Fatalf("second Download: %v", err)
	}
	if res.Name == wantName {
		t.Fatalf("generated name must not clobber an existing icon")
	}

	if _, err := f.svc.Download(ctx, "https://example.com/x.png", "logo"); err != nil {
		t.Fatal(err)
	}
	if !f.svc.IconExists("logo.png") {
		t.Fatalf("named download missing")
	}
	list, _ := f.svc.List(ctx)
	if len(list) != 3 {
		t.Fatalf("expected 3 icons after downloads, got %d", len(list))
	}
}

func TestDownload_Failures(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Download(ctx, "https://example.com/x.png", "../x"); !apperrors.Is(err, apperrors.KindInvalidArgument) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if f.fetcher.calls != 0 {
		t.Fatalf("invalid name must not fetch")
	}

	f.fetcher.err = apperrors.RemoteError(500)
	if _, err := f.svc.Download(ctx, "https://example.com/x.png", "x"); !apperrors.Is(err, apperrors.KindRemoteError) {
		t.Fatalf("expected remote error, got %v", err)
	}

	f.fetcher.err = nil
	f.fetcher.data = []byte("<html>")
	if _, err := f.svc.Download(ctx, "https://example.com/x.png", "x"); !apperrors.Is(err, apperrors.KindInvalidImage) {
		t.Fatalf("expected invalid image, got %v", err)
	}
	if f.svc.IconExists("x.png") {
		t.Fatalf("failed download must not leave a file")
	}
}

func TestRename(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultIcon = "a.png"
	cfg.DateIcons = map[string]string{"24.12": "a.png"}
	f := newFixture(t, &cfg, "a.png", "b.png")
	ctx := context.Background()

	from, to, err := f.svc.Rename(ctx, "0", "zeta")
	if err != nil || from != "a.png" || to != "zeta.png" {
		t.Fatalf("Rename() = (%q, %q, %v)", from, to, err)
	}
	if f.svc.IconExists("a.png") || !f.svc.IconExists("zeta.png") {
		t.Fatalf("file was not moved")
	}
	saved := f.savedConfig(t)
	if saved.DefaultIcon != "zeta.png" || saved.DateIcons["24.12"] != "zeta.png" {
		t.Fatalf("references not re-pointed: %+v", saved)
	}
	if got := f.selectName(t); got != "zeta.png" {
		t.Fatalf("override should follow rename, got %q", got)
	}

	if _, _, err := f.svc.Rename(ctx, "zeta.png", "b.png"); !apperrors.Is(err, apperrors.KindNameConflict) {
		t.Fatalf("expected name conflict, got %v", err)
	}
	if _, _, err := f.svc.Rename(ctx, "missing.png", "c"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := f.svc.Rename(ctx, "b.png", "sub/c"); !apperrors.Is(err, apperrors.KindInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestProcessInput(t *testing.T) {
	f := newFixture(t, nil, "a.png")
	testutil.WriteFile(t, f.paths.Input, "b.gif", testutil.PNG(t, 10, 10, testutil.Blue))
	testutil.WriteFile(t, f.paths.Input, "bad.png", []byte("nope"))

	report, err := f.svc.ProcessInput(context.Background())
	if err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	if len(report.Committed) != 1 || len(report.Failed) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	list, _ := f.svc.List(context.Background())
	if len(list) != 2 || list[1].Name != "b.png" {
		t.Fatalf("List() = %+v", list)
	}
}

func TestReloadConfig(t *testing.T) {
	f := newFixture(t, nil, "a.png", "b.png")
	ctx := context.Background()
	if err := f.svc.StartRotation(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Mode = "static"
	cfg.DefaultIcon = "b.png"
	cfg.DateIcons = map[string]string{"1.1": "a.png"}
	if err := config.Save(f.paths.Config, cfg); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.ReloadConfig(ctx); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	st, err := f.svc.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode != selection.ModeStatic || st.Rotating || st.DefaultIcon != "b.png" || !st.DefaultAvailable {
		t.Fatalf("unexpected status after reload %+v", st)
	}
	if !reflect.DeepEqual(st.DateIcons, map[string]string{"01.01": "a.png"}) {
		t.Fatalf("DateIcons = %v", st.DateIcons)
	}
	if got := f.selectName(t); got != "b.png" {
		t.Fatalf("selected %q", got)
	}
}

func TestRefresh_DiscardsStaleScan(t *testing.T) {
	f := newFixture(t, nil, "a.png")
	ctx := context.Background()
	if err := f.svc.loop.Do(ctx, func() { f.svc.appliedScans = 1 << 40 }); err != nil {
		t.Fatal(err)
	}
	testutil.WriteIcon(t, f.paths.Icons, "b.png", testutil.Blue)
	n, err := f.svc.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Refresh reported %d icons, want the live count 1", n)
	}
	list, _ := f.svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("stale scan was applied: %+v", list)
	}
}

func TestClosedServiceRejectsCalls(t *testing.T) {
	f := newFixture(t, nil, "a.png")
	f.svc.Close()
	if _, err := f.svc.Select(context.Background(), christmas); !errors.Is(err, dispatch.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
