package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/pkgdb/internal/paths"
)

func mkdirs(t *testing.T, base string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, filepath.FromSlash(d)), 0o755))
	}
}

func notDotted(name string) bool {
	return !strings.HasPrefix(name, ".")
}

func collect(t *testing.T, e *Engine, isValid NameValidator) ([]Package, error) {
	t.Helper()
	var found []Package
	var doneCalls int
	var doneErr error
	e.Search(context.Background(), func(pkg Package, ack Ack) {
		found = append(found, pkg)
		ack(nil)
	}, func(err error) {
		doneCalls++
		doneErr = err
	}, isValid)
	require.Equal(t, 1, doneCalls, "onDone must fire exactly once")
	return found, doneErr
}

func names(pkgs []Package) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func defaultRoot(dir string) []paths.Root {
	return []paths.Root{{Name: dir, Path: dir, Default: true}}
}

func TestSearchFindsScopedAndUnscoped(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "pkg1", "pkg2", "@scope/inner1", "@scope/inner2")
	require.NoError(t, os.WriteFile(filepath.Join(reg, ".verdaccio-db.json"), []byte("{}"), 0o600))

	found, err := collect(t, New(defaultRoot(reg), nil), notDotted)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"pkg1", "pkg2", "@scope/inner1", "@scope/inner2"}, names(found))
	for _, p := range found {
		assert.Equal(t, filepath.Join(reg, filepath.FromSlash(p.Name)), p.Path)
		assert.NotZero(t, p.Time)
		assert.Equal(t, p.ModTime.UnixMilli(), p.Time)
		assert.Equal(t, strings.HasPrefix(p.Name, "@"), p.Scoped())
	}
}

func TestSearchValidatorFiltersInnerNames(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "pkg1", "pkg2", "@scope/inner1", "@scope/inner2")

	found, err := collect(t, New(defaultRoot(reg), nil), func(name string) bool {
		return notDotted(name) && name != "inner2"
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"pkg1", "pkg2", "@scope/inner1"}, names(found))
}

func TestSearchRootListingFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	found, err := collect(t, New(defaultRoot(missing), nil), notDotted)

	assert.Empty(t, found)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSearchSkipsOverrideRootsAndVisitsThem(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "pkg1", "private/secret-pkg", "private/@corp/tool")

	roots := []paths.Root{
		{Name: reg, Path: reg, Default: true},
		{Name: "private", Path: filepath.Join(reg, "private")},
	}
	found, err := collect(t, New(roots, nil), notDotted)
	require.NoError(t, err)

	// "private" itself is never reported as a package
	assert.Equal(t, []string{"pkg1", "@corp/tool", "secret-pkg"}, names(found))
	assert.Equal(t, filepath.Join(reg, "private", "@corp", "tool"), found[1].Path)
}

func TestSearchOrderIsStable(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "c", "a", "b", "@z/y", "@a/x")

	var got []string
	err := New(defaultRoot(reg), nil).Walk(context.Background(), notDotted, func(p Package) error {
		got = append(got, p.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"@a/x", "@z/y", "a", "b", "c"}, got)
}

func TestSearchStatFailureStopsWalk(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "a", "c")
	if err := os.Symlink(filepath.Join(reg, "gone"), filepath.Join(reg, "b")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	found, err := collect(t, New(defaultRoot(reg), nil), notDotted)
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, names(found))
}

func TestSearchSkipUnreadable(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "a", "c")
	require.NoError(t, os.WriteFile(filepath.Join(reg, "@notadir"), []byte("x"), 0o600))
	if err := os.Symlink(filepath.Join(reg, "gone"), filepath.Join(reg, "b")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	found, err := collect(t, New(defaultRoot(reg), nil, WithSkipUnreadable(true)), notDotted)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(found))
}

func TestSearchAckErrorStops(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "a", "b", "c")
	boom := errors.New("sink full")

	var found []string
	var doneErr error
	New(defaultRoot(reg), nil).Search(context.Background(), func(p Package, ack Ack) {
		found = append(found, p.Name)
		if p.Name == "b" {
			ack(boom)
			return
		}
		ack(nil)
	}, func(err error) { doneErr = err }, notDotted)

	assert.Equal(t, []string{"a", "b"}, found)
	assert.ErrorIs(t, doneErr, boom)
}

func TestSearchWaitsForAsyncAck(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "a", "b", "c")

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	var found []string

	New(defaultRoot(reg), nil).Search(context.Background(), func(p Package, ack Ack) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		found = append(found, p.Name)
		mu.Unlock()

		go func() {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			ack(nil)
			ack(nil) // a second ack is ignored
		}()
	}, func(err error) { assert.NoError(t, err) }, notDotted)

	assert.Equal(t, []string{"a", "b", "c"}, found)
	assert.Equal(t, 1, maxInFlight)
}

func TestSearchContextCancelled(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	var doneErr error
	New(defaultRoot(reg), nil).Search(ctx, func(p Package, ack Ack) {
		cancel() // never acked
	}, func(err error) { doneErr = err }, notDotted)

	assert.ErrorIs(t, doneErr, context.Canceled)
}

func TestWalkErrStoppedIsNotAFailure(t *testing.T) {
	reg := t.TempDir()
	mkdirs(t, reg, "a", "b")

	var seen int
	err := New(defaultRoot(reg), nil).Walk(context.Background(), nil, func(Package) error {
		seen++
		return ErrStopped
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, seen)
}
