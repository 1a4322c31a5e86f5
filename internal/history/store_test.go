package history

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/tokenscope/internal/config"
	"github.com/irfndi/tokenscope/internal/testutil"
)

func TestPrepend(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		token   string
		want    []string
	}{
		{"empty", nil, "A", []string{"A"}},
		{"new entry goes first", []string{"A", "B"}, "C", []string{"C", "A", "B"}},
		{"existing entry moves to front", []string{"A", "B", "C"}, "B", []string{"B", "A", "C"}},
		{"capped at five", []string{"A", "B", "C", "D", "E"}, "F", []string{"F", "A", "B", "C", "D"}},
		{"dedup within cap", []string{"A", "B", "C", "D", "E"}, "E", []string{"E", "A", "B", "C", "D"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prepend(tt.entries, tt.token))
		})
	}
}

// storeFactories exercises every backend with the same behaviour checks.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "nested", "history.json"))
		},
		"redis": func(t *testing.T) Store {
			_, client := testutil.NewMiniRedis(t)
			return NewRedisStore(client, "")
		},
	}
}

func TestStores_RecordAndRead(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			initial, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Empty(t, initial)

			for _, token := range []string{"A", "B", "C", "D", "E", "F", "C", "  "} {
				_, err := Record(ctx, store, token)
				require.NoError(t, err)
			}

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"C", "F", "E", "D", "B"}, got)
		})
	}
}

func TestStores_WriteNormalizes(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			require.NoError(t, store.Write(ctx, []string{"A", "", "A", "B", "C", "D", "E", "F"}))

			got, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got)

			require.NoError(t, store.Write(ctx, nil))
			got, err = store.Read(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestRecord_ReturnsNewList(t *testing.T) {
	store := NewMemoryStore()
	_, err := Record(context.Background(), store, "A")
	require.NoError(t, err)

	got, err := Record(context.Background(), store, " B ")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, got)
}

func TestMemoryStore_ConcurrentRecords(t *testing.T) {
	store := NewMemoryStore()
	tokens := []string{"A", "B", "C", "D", "E"}

	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			_, _ = Record(context.Background(), store, token)
		}(token)
	}
	wg.Wait()

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, tokens, got)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Read(context.Background())
	assert.ErrorContains(t, err, "failed to parse history file")
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	_, err := Record(context.Background(), NewFileStore(path), "A")
	require.NoError(t, err)

	got, err := NewFileStore(path).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)
}

func TestRedisStore_UsesConfiguredKey(t *testing.T) {
	s, client := testutil.NewMiniRedis(t)

	_, err := Record(context.Background(), NewRedisStore(client, "custom:history"), "A")
	require.NoError(t, err)

	list, err := s.List("custom:history")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, list)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, closeFn, err := Open(ctx, config.HistoryConfig{Backend: config.HistoryMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "h.json")
	store, _, err = Open(ctx, config.HistoryConfig{Backend: config.HistoryFile, FilePath: path}, nil)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, store)
	assert.Equal(t, path, store.(*FileStore).Path())

	s, _ := testutil.NewMiniRedis(t)
	store, closeFn, err = Open(ctx, testutil.RedisHistoryConfig(s.Addr(), "k"), nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	assert.NoError(t, closeFn())

	_, _, err = Open(ctx, config.HistoryConfig{Backend: "sqlite"}, nil)
	assert.ErrorContains(t, err, "unsupported history backend")
}
