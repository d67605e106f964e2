package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/pkgdb/internal/index"
	"github.com/illarion/pkgdb/internal/ledger"
	"github.com/illarion/pkgdb/internal/security"
)

func TestSyncAddsMissingPackages(t *testing.T) {
	db, dir := newDatabase(t)
	require.NoError(t, db.Add("pkg1"))
	mkdirs(t, dir, "pkg1", "pkg2", "@scope/inner", "private/foo")

	added, err := db.Sync(context.Background(), security.IsValidName)
	require.NoError(t, err)
	assert.Equal(t, []string{"@scope/inner", "pkg2", "foo"}, added)
	assert.Equal(t, []string{"pkg1", "@scope/inner", "pkg2", "foo"}, db.Get())

	added, err = db.Sync(context.Background(), security.IsValidName)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestSyncOnLockedDatabase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".verdaccio-db.json"), []byte("]"), 0o600))
	mkdirs(t, dir, "pkg1", "private")

	db, err := New(testConfig(dir), nil)
	require.NoError(t, err)

	_, err = db.Sync(context.Background(), security.IsValidName)
	assert.ErrorIs(t, err, index.ErrLocked)
}

func TestDiff(t *testing.T) {
	db, dir := newDatabase(t)
	mkdirs(t, dir, "private")

	out, err := db.Diff(context.Background(), security.IsValidName)
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, db.Add("pkg1"))
	require.NoError(t, db.Add("stale"))
	mkdirs(t, dir, "pkg1", "fresh")

	out, err = db.Diff(context.Background(), security.IsValidName)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "--- index\n+++ disk\n"), out)
	assert.Contains(t, out, "+fresh")
	assert.Contains(t, out, "-stale")
	assert.NotContains(t, out, "-pkg1")
}

func TestScanReportsChanges(t *testing.T) {
	db, dir := newDatabase(t)
	mkdirs(t, dir, "pkg1", "pkg2", "private")

	l, err := ledger.Open(filepath.Join(t.TempDir(), ledger.DefaultFile))
	require.NoError(t, err)
	defer l.Close()

	changes, err := db.Scan(context.Background(), l, security.IsValidName)
	require.NoError(t, err)
	require.Len(t, changes.Added, 2)
	assert.Equal(t, "pkg1", changes.Added[0].Name)
	assert.Empty(t, changes.Removed)

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "pkg2")))
	mkdirs(t, dir, "pkg3")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "pkg1"), later, later))

	changes, err = db.Scan(context.Background(), l, security.IsValidName)
	require.NoError(t, err)
	require.Len(t, changes.Added, 1)
	assert.Equal(t, "pkg3", changes.Added[0].Name)
	require.Len(t, changes.Removed, 1)
	assert.Equal(t, "pkg2", changes.Removed[0].Name)
	require.Len(t, changes.Changed, 1)
	assert.Equal(t, "pkg1", changes.Changed[0].Name)

	scans, err := l.Scans()
	require.NoError(t, err)
	assert.EqualValues(t, 2, scans)
}

func TestUsage(t *testing.T) {
	db, dir := newDatabase(t)
	mkdirs(t, dir, "pkg1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg1", "pkg1-1.0.0.tgz"), []byte("12345"), 0o644))

	u, err := db.Usage(context.Background(), "pkg1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.Tarballs)
	assert.EqualValues(t, 5, u.Bytes)

	_, err = db.Usage(context.Background(), "../x")
	assert.ErrorIs(t, err, ErrNoStorage)
}
