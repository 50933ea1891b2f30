package stats

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func sampleStore() *Store {
	s := NewStore()
	fill(s, "english", "the", "cat", "sat")
	fill(s, "french", "le", "chat")
	fill(s, "spanish", "el", "gato")
	s.SetTokenizer("plain")
	return s
}

func TestSnapshotRestore(t *testing.T) {
	req := require.New(t)
	s := sampleStore()

	restored := NewStore()
	req.NoError(restored.Restore(s.Snapshot("language")))

	req.Equal(s.Labels(), restored.Labels())
	req.Equal(s.Tokens(), restored.Tokens())
	req.Equal(s.TotalDocs(), restored.TotalDocs())
	req.Equal(1, restored.JointCount("chat", "french"))
	req.Equal("plain", restored.Tokenizer())
}

func TestRestoreRejectsBrokenSnapshot(t *testing.T) {
	req := require.New(t)
	snap := sampleStore().Snapshot("broken")
	snap.StemCount["cat"] = 5

	s := sampleStore()
	req.Error(s.Restore(snap))
	// the store is untouched on failure
	req.Equal(1, s.StemCount("cat"))
}

func TestCompressAndWriteGzipFile(t *testing.T) {
	req := require.New(t)
	dir := filepath.Join(t.TempDir(), "models")

	req.NoError(SaveSnapshot(FileOpsImpl{}, dir, "language", sampleStore()))
	_, err := os.Stat(filepath.Join(dir, "language.gz"))
	req.NoError(err)

	loaded, err := LoadSnapshot(dir, "language")
	req.NoError(err)
	req.Equal([]string{"english", "french", "spanish"}, loaded.Labels())
	req.Equal(3, loaded.TotalDocs())
	req.Equal("plain", loaded.Tokenizer())

	names, err := ListSnapshots(dir)
	req.NoError(err)
	req.Equal([]string{"language"}, names)

	req.NoError(DeleteSnapshot(dir, "language"))
	req.ErrorIs(DeleteSnapshot(dir, "language"), ErrSnapshotNotFound)
	names, err = ListSnapshots(dir)
	req.NoError(err)
	req.Empty(names)
}

func TestFileOpsNoOp(t *testing.T) {
	req := require.New(t)
	dir := filepath.Join(t.TempDir(), "models")

	req.NoError(SaveSnapshot(FileOpsNoOp{}, dir, "language", sampleStore()))
	_, err := os.Stat(dir)
	req.True(os.IsNotExist(err))

	_, err = LoadSnapshot(dir, "language")
	req.ErrorIs(err, ErrSnapshotNotFound)

	names, err := ListSnapshots(dir)
	req.NoError(err)
	req.Empty(names)
}

func TestRepository(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()

	repo := NewRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(repo.Save("language", sampleStore()))
	req.NoError(repo.Save("sentiment", NewStore()))

	names, err := repo.List()
	req.NoError(err)
	req.Equal([]string{"language", "sentiment"}, names)

	loaded, err := repo.Load("language")
	req.NoError(err)
	req.Equal([]string{"english", "french", "spanish"}, loaded.Labels())
	req.Equal(1, loaded.JointCount("gato", "spanish"))
	req.Equal("plain", loaded.Tokenizer())

	_, err = repo.Load("missing")
	req.ErrorIs(err, ErrSnapshotNotFound)

	req.NoError(repo.Delete("sentiment"))
	req.ErrorIs(repo.Delete("sentiment"), ErrSnapshotNotFound)
	names, err = repo.List()
	req.NoError(err)
	req.Equal([]string{"language"}, names)
}
