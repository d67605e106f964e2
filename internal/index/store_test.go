package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/illarion/pkgdb/internal/logging"
)

func observed() (*logging.ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(logging.TraceLevel)
	return logging.NewWithCore(core), logs
}

func readDocument(t *testing.T, path string) Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestOpenMissingFile(t *testing.T) {
	logger, logs := observed()
	path := filepath.Join(t.TempDir(), "storage", ".verdaccio-db.json")

	s := Open(path, logger)

	assert.Equal(t, []string{}, s.List())
	assert.Equal(t, "", s.Secret())
	assert.False(t, s.Locked())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "open must not create the document")
}

func TestAddIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := Open(path, nil)

	require.NoError(t, s.Add("pkg1"))
	require.NoError(t, s.Add("pkg2"))
	require.NoError(t, s.Add("pkg1"))

	assert.Equal(t, []string{"pkg1", "pkg2"}, s.List())
	assert.Equal(t, []string{"pkg1", "pkg2"}, readDocument(t, path).List)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := Open(path, nil)

	require.NoError(t, s.Add("a"))
	require.NoError(t, s.Add("b"))
	require.NoError(t, s.Add("c"))

	require.NoError(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, s.List())

	// Removing an unknown name still rewrites the file
	require.NoError(t, os.Remove(path))
	require.NoError(t, s.Remove("missing"))
	assert.Equal(t, []string{"a", "c"}, readDocument(t, path).List)
}

func TestSecretRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := Open(path, nil)

	require.NoError(t, s.SetSecret("s3cr3t"))
	assert.Equal(t, "s3cr3t", s.Secret())

	reopened := Open(path, nil)
	assert.Equal(t, "s3cr3t", reopened.Secret())
}

func TestListIsACopy(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "db.json"), nil)
	require.NoError(t, s.Add("a"))

	list := s.List()
	list[0] = "mutated"

	assert.Equal(t, []string{"a"}, s.List())
}

func TestPersistenceAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "db.json")
	s := Open(path, nil)
	require.NoError(t, s.Add("@scope/pkg"))
	require.NoError(t, s.Add("plain"))

	reopened := Open(path, nil)
	assert.Equal(t, []string{"@scope/pkg", "plain"}, reopened.List())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerm), info.Mode().Perm())
}

func TestLoadCollapsesDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"list":["a","b","a"],"secret":"x"}`), 0o600))

	s := Open(path, nil)
	assert.Equal(t, []string{"a", "b"}, s.List())
	assert.Equal(t, "x", s.Secret())
}

func TestCorruptDocumentLocksStore(t *testing.T) {
	logger, logs := observed()
	path := filepath.Join(t.TempDir(), "db.json")
	corrupt := []byte(`{"list":["a",`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))

	s := Open(path, logger)

	assert.True(t, s.Locked())
	assert.Equal(t, Locked, s.State())
	assert.Equal(t, []string{}, s.List())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	assert.ErrorIs(t, s.Add("b"), ErrLocked)
	assert.ErrorIs(t, s.Remove("a"), ErrLocked)
	assert.ErrorIs(t, s.SetSecret("x"), ErrLocked)
	assert.ErrorIs(t, s.Persist(), ErrLocked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data, "locked store must not touch the file")
}

func TestLockIsSticky(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s := Open(path, nil)
	require.True(t, s.Locked())

	// Even once the file is repaired the instance stays locked
	require.NoError(t, os.WriteFile(path, []byte(`{"list":["a"],"secret":""}`), 0o600))
	s.Load()
	assert.True(t, s.Locked())
	assert.ErrorIs(t, s.Persist(), ErrLocked)
}

func TestUnreadableDocumentLocksStore(t *testing.T) {
	// A directory in place of the file cannot be read
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	s := Open(path, nil)
	assert.True(t, s.Locked())
}

func TestPersistDirectoryFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	s := Open(filepath.Join(blocker, "db.json"), nil)
	require.False(t, s.Locked())

	// A file where the index directory should be created
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

	err := s.Add("a")
	assert.ErrorIs(t, err, ErrCreateDir)
}

func TestFailedWritesLeaveIndexUnchangedWhenLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	s := Open(path, nil)
	require.True(t, s.Locked())

	assert.ErrorIs(t, s.Add("ghost"), ErrLocked)
	assert.ErrorIs(t, s.Add("ghost"), ErrLocked, "retry must fail too")
	assert.Equal(t, []string{}, s.List())
	assert.False(t, s.Contains("ghost"))

	assert.ErrorIs(t, s.SetSecret("unsaved"), ErrLocked)
	assert.Equal(t, "", s.Secret())
}

func TestFailedWritesAreRetried(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	path := filepath.Join(blocker, "db.json")
	s := Open(path, nil)
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

	assert.ErrorIs(t, s.Add("p"), ErrCreateDir)
	assert.ErrorIs(t, s.Add("p"), ErrCreateDir, "retry must write again")
	assert.ErrorIs(t, s.SetSecret("s"), ErrCreateDir)
	assert.Equal(t, []string{}, s.List())
	assert.Equal(t, "", s.Secret())

	// Once the directory can be created the retried writes reach disk
	require.NoError(t, os.Remove(blocker))
	require.NoError(t, s.Add("p"))
	require.NoError(t, s.SetSecret("s"))

	doc := readDocument(t, path)
	assert.Equal(t, []string{"p"}, doc.List)
	assert.Equal(t, "s", doc.Secret)
}

func TestFailedRemoveKeepsName(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	path := filepath.Join(blocker, "db.json")
	s := Open(path, nil)
	require.NoError(t, os.MkdirAll(blocker, 0o755))
	require.NoError(t, s.Add("p"))

	// Replace the directory with a file so the next write fails
	require.NoError(t, os.RemoveAll(blocker))
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

	assert.ErrorIs(t, s.Remove("p"), ErrCreateDir)
	assert.Equal(t, []string{"p"}, s.List())
}

func TestPersistWriteFailure(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(dir, 0o755))
	s := Open(filepath.Join(dir, "db.json"), nil)

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err := s.Add("a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
	assert.False(t, s.Locked())
}

func TestConcurrentAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := Open(path, nil)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Add(name))
			assert.NoError(t, s.Add(name))
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, names, s.List())
	assert.ElementsMatch(t, names, readDocument(t, path).List)
}
