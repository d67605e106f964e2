package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/illarion/pkgdb/internal/config"
	"github.com/illarion/pkgdb/internal/index"
	"github.com/illarion/pkgdb/internal/logging"
	"github.com/illarion/pkgdb/internal/paths"
	"github.com/illarion/pkgdb/internal/search"
	"github.com/illarion/pkgdb/internal/security"
)

func testConfig(storage string) *config.Config {
	cfg := config.Default()
	cfg.Storage = storage
	cfg.Packages = config.PackageRules{
		{Pattern: "@private/*", Storage: "private"},
		{Pattern: "foo", Storage: "private"},
		{Pattern: "**", Access: "$all"},
	}
	return cfg
}

func newDatabase(t *testing.T) (*LocalDatabase, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := New(testConfig(dir), logging.Nop())
	require.NoError(t, err)
	return db, dir
}

func mkdirs(t *testing.T, base string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, filepath.FromSlash(d)), 0o755))
	}
}

func TestNewRequiresStorage(t *testing.T) {
	_, err := New(config.Default(), logging.Nop())
	assert.ErrorIs(t, err, paths.ErrStorageNotConfigured)
}

func TestFirstRun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dir := t.TempDir()

	db, err := New(testConfig(dir), logging.NewWithCore(core))
	require.NoError(t, err)

	assert.Empty(t, db.Get())
	assert.Equal(t, "", db.GetSecret())
	assert.False(t, db.Locked())
	assert.Equal(t, filepath.Join(dir, paths.IndexFile), db.IndexPath())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestAddRemoveGet(t *testing.T) {
	db, _ := newDatabase(t)

	require.NoError(t, db.Add("pkg1"))
	require.NoError(t, db.Add("@scope/pkg2"))
	require.NoError(t, db.Add("pkg1"))
	assert.Equal(t, []string{"pkg1", "@scope/pkg2"}, db.Get())

	require.NoError(t, db.Remove("pkg1"))
	require.NoError(t, db.Remove("never-added"))
	assert.Equal(t, []string{"@scope/pkg2"}, db.Get())

	// Callers cannot mutate the index through the returned slice
	list := db.Get()
	list[0] = "mutated"
	assert.Equal(t, []string{"@scope/pkg2"}, db.Get())
}

func TestSecretSurvivesReload(t *testing.T) {
	db, dir := newDatabase(t)
	require.NoError(t, db.SetSecret("s3cr3t"))
	assert.Equal(t, "s3cr3t", db.GetSecret())

	reopened, err := New(testConfig(dir), logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", reopened.GetSecret())
}

func TestLegacyIndexPreferred(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, paths.LegacyIndexFile)
	require.NoError(t, os.WriteFile(legacy, []byte(`{"list":["old"],"secret":"x"}`), 0o600))

	db, err := New(testConfig(dir), logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, legacy, db.IndexPath())
	assert.Equal(t, []string{"old"}, db.Get())
}

func TestCorruptIndexLocksDatabase(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, paths.IndexFile)
	require.NoError(t, os.WriteFile(indexPath, []byte("{not json"), 0o600))

	core, logs := observer.New(zapcore.DebugLevel)
	db, err := New(testConfig(dir), logging.NewWithCore(core))
	require.NoError(t, err)

	assert.True(t, db.Locked())
	assert.Positive(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	assert.ErrorIs(t, db.Add("pkg"), index.ErrLocked)
	assert.ErrorIs(t, db.SetSecret("x"), index.ErrLocked)
	assert.ErrorIs(t, db.Flush(), index.ErrLocked)

	data, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestGetPackageStorage(t *testing.T) {
	db, dir := newDatabase(t)

	foo, ok := db.GetPackageStorage("foo")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "private", "foo"), foo.Path())

	bar, ok := db.GetPackageStorage("bar")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "bar"), bar.Path())

	scoped, ok := db.GetPackageStorage("@private/lib")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "private", "@private", "lib"), scoped.Path())

	_, ok = db.GetPackageStorage("../escape")
	assert.False(t, ok)
}

func TestSearchAcrossRoots(t *testing.T) {
	db, dir := newDatabase(t)
	mkdirs(t, dir, "pkg1", "@scope/inner1", "private/foo", "private/@private/lib")
	require.NoError(t, db.Flush())

	var found []string
	var doneCalls int
	db.Search(context.Background(), func(pkg search.Package, ack search.Ack) {
		found = append(found, pkg.Name)
		go ack(nil)
	}, func(err error) {
		doneCalls++
		assert.NoError(t, err)
	}, security.IsValidName)

	assert.Equal(t, 1, doneCalls)
	assert.Equal(t, []string{"@scope/inner1", "pkg1", "@private/lib", "foo"}, found)
}

func TestSearchWithoutStorage(t *testing.T) {
	db, _ := newDatabase(t)
	db.resolver = paths.New("", "", nil)

	var doneErr error
	db.Search(context.Background(), func(search.Package, search.Ack) {
		t.Fatal("no package expected")
	}, func(err error) { doneErr = err }, nil)
	assert.ErrorIs(t, doneErr, paths.ErrStorageNotConfigured)
}

func TestSearchMissingRootFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	db, err := New(testConfig(dir), logging.Nop())
	require.NoError(t, err)

	var reported int
	var doneErr error
	db.Search(context.Background(), func(_ search.Package, ack search.Ack) {
		reported++
		ack(nil)
	}, func(err error) { doneErr = err }, nil)

	assert.Zero(t, reported)
	assert.ErrorIs(t, doneErr, os.ErrNotExist)
}

func TestTokensNotImplemented(t *testing.T) {
	db, _ := newDatabase(t)
	ctx := context.Background()

	assert.ErrorIs(t, db.SaveToken(ctx, Token{User: "u", Token: "t"}), ErrNotImplemented)
	assert.ErrorIs(t, db.DeleteToken(ctx, "u", "k"), ErrNotImplemented)
	_, err := db.ReadTokens(ctx, TokenFilter{User: "u"})
	assert.True(t, errors.Is(err, ErrNotImplemented))
}

func TestWalkStops(t *testing.T) {
	db, dir := newDatabase(t)
	mkdirs(t, dir, "a", "b", "c")

	var seen []string
	err := db.Walk(context.Background(), security.IsValidName, func(pkg search.Package) error {
		seen = append(seen, pkg.Name)
		if strings.HasPrefix(pkg.Name, "b") {
			return search.ErrStopped
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}
