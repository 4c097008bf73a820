package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deeplink/internal/route"
)

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, "roblox://navigation/home", "home", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_NewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, inserted, err := s.Record(ctx, "roblox://navigation/home", "home", nil)
	require.NoError(t, err)
	assert.True(t, inserted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClose_Idempotent(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	entry, inserted, err := s.Record(ctx, "roblox://placeId=1818", "joinPlace", route.Params{"placeId": "1818"})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), entry.Seq)
	assert.Len(t, entry.ID, 64)
	assert.Len(t, entry.ParamsHash, 64)
	assert.Equal(t, route.Name("joinPlace"), entry.Route)
	assert.Equal(t, route.Params{"placeId": "1818"}, entry.Params)

	t.Run("duplicate url keeps first", func(t *testing.T) {
		again, inserted, err := s.Record(ctx, "roblox://placeId=1818", "experienceDetails", route.Params{"placeId": "9"})
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, entry, again)
	})

	t.Run("unresolved", func(t *testing.T) {
		miss, inserted, err := s.Record(ctx, "roblox://nowhere", "", nil)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, route.Name(""), miss.Route)
		assert.Equal(t, route.Params{}, miss.Params)
	})

	t.Run("empty url", func(t *testing.T) {
		_, _, err := s.Record(ctx, "", "home", nil)
		assert.Error(t, err)
	})
}

func TestRecord_CanonicalParams(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, _, err := s.Record(ctx, "roblox://x", "joinPlace", route.Params{"placeId": "1", "accessCode": "<a&b>"})
	require.NoError(t, err)

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT params FROM links WHERE url = ?`, "roblox://x").Scan(&raw))
	assert.Equal(t, `{"accessCode":"<a&b>","placeId":"1"}`, raw)
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Get(context.Background(), "roblox://missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Order(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	urls := []string{"roblox://c", "roblox://a", "roblox://b"}
	for _, u := range urls {
		_, _, err := s.Record(ctx, u, "home", nil)
		require.NoError(t, err)
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, urls[i], e.URL)
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestListByRoute(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, _, err := s.Record(ctx, "roblox://navigation/home", "home", nil)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, "https://www.roblox.com/home", "home", nil)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, "roblox://navigation/chat", "chat", nil)
	require.NoError(t, err)

	home, err := s.ListByRoute(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, home, 2)

	none, err := s.ListByRoute(ctx, "charts")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEquivalents(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	params := route.Params{"placeId": "1818"}
	_, _, err := s.Record(ctx, "roblox://placeId=1818", "joinPlace", params)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, "https://www.roblox.com/games/start?placeId=1818", "joinPlace", params)
	require.NoError(t, err)
	_, _, err = s.Record(ctx, "roblox://placeId=1819", "joinPlace", route.Params{"placeId": "1819"})
	require.NoError(t, err)

	eq, err := s.Equivalents(ctx, "joinPlace", route.Params{"placeId": "1818"})
	require.NoError(t, err)
	require.Len(t, eq, 2)
	assert.Equal(t, "roblox://placeId=1818", eq[0].URL)
	assert.Equal(t, eq[0].ParamsHash, eq[1].ParamsHash)
	assert.NotEqual(t, eq[0].ID, eq[1].ID)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, _, err := s.Record(ctx, "roblox://navigation/home", "home", nil)
	require.NoError(t, err)

	ok, err := s.Forget(ctx, "roblox://navigation/home")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Forget(ctx, "roblox://navigation/home")
	require.NoError(t, err)
	assert.False(t, ok)

	_, inserted, err := s.Record(ctx, "roblox://navigation/home", "chat", nil)
	require.NoError(t, err)
	assert.True(t, inserted)
}
