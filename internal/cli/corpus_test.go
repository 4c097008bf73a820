package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deeplink/internal/route"
	"github.com/roach88/deeplink/internal/store"
)

func corpusDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "corpus.db")
}

func TestCorpusRecordAndList(t *testing.T) {
	db := corpusDB(t)

	out, _, err := runCLI(t, "corpus", "record", "--db", db, "--format", "json",
		"roblox://navigation/home",
		"https://www.roblox.com/events/4821",
		"roblox://navigation/nowhere",
	)
	require.NoError(t, err)

	recorded, _ := decodeResponse[[]struct {
		URL      string            `json:"url"`
		Route    string            `json:"route"`
		Params   map[string]string `json:"params"`
		Inserted bool              `json:"inserted"`
	}](t, out)
	require.Len(t, recorded, 3)
	assert.Equal(t, "home", recorded[0].Route)
	assert.Equal(t, "experienceEventDetails", recorded[1].Route)
	assert.Equal(t, map[string]string{"eventId": "4821"}, recorded[1].Params)
	assert.Empty(t, recorded[2].Route, "unmatched URLs are recorded with no route")
	for _, r := range recorded {
		assert.True(t, r.Inserted)
	}

	out, _, err = runCLI(t, "corpus", "record", "--db", db, "roblox://navigation/home")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 0 new, 1 already present")

	out, _, err = runCLI(t, "corpus", "list", "--db", db, "--route", "home", "--format", "json")
	require.NoError(t, err)
	listed, _ := decodeResponse[[]store.Entry](t, out)
	require.Len(t, listed, 1)
	assert.Equal(t, "roblox://navigation/home", listed[0].URL)
}

func TestCorpusRecordFromSeed(t *testing.T) {
	db := corpusDB(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("urls:\n  - roblox://navigation/home\n  - ' roblox://navigation/home '\n"), 0o644))

	_, _, err := runCLI(t, "corpus", "record", "--db", db, "--from", seed)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCorpusRecord_NoURLs(t *testing.T) {
	_, _, err := runCLI(t, "corpus", "record", "--db", corpusDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCorpusVerify(t *testing.T) {
	db := corpusDB(t)

	_, _, err := runCLI(t, "corpus", "record", "--db", db,
		"roblox://navigation/home", "https://www.roblox.com/events/4821")
	require.NoError(t, err)

	out, _, err := runCLI(t, "corpus", "verify", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "OK      roblox://navigation/home")
	assert.Contains(t, out, "2 ok, 0 changed, 0 errors")
}

func TestCorpusVerify_Drift(t *testing.T) {
	db := corpusDB(t)

	// Record an entry the current table no longer agrees with.
	st, err := store.Open(db)
	require.NoError(t, err)
	_, _, err = st.Record(context.Background(), "roblox://navigation/home", "charts", route.Params{})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := runCLI(t, "corpus", "verify", "--db", db, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	summary, resp := decodeResponse[VerifySummary](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeDrift, resp.Error.Code)
	assert.Equal(t, 1, summary.Changed)
	require.Len(t, summary.Entries, 1)
	assert.Equal(t, store.OutcomeChanged, summary.Entries[0].Outcome)
	assert.Equal(t, route.Name("charts"), summary.Entries[0].Route)
	assert.Equal(t, route.Name("home"), summary.Entries[0].GotRoute)
}

func TestCorpusForget(t *testing.T) {
	db := corpusDB(t)

	_, _, err := runCLI(t, "corpus", "record", "--db", db, "roblox://navigation/home")
	require.NoError(t, err)

	out, _, err := runCLI(t, "corpus", "forget", "--db", db, "roblox://navigation/home")
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot roblox://navigation/home")

	_, _, err = runCLI(t, "corpus", "forget", "--db", db, "roblox://navigation/home")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestParamsText(t *testing.T) {
	assert.Equal(t, `{}`, paramsText(nil))
	assert.Equal(t, `{"a":"1","b":"x&y"}`, paramsText(route.Params{"b": "x&y", "a": "1"}))
}
