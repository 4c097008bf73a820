package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Player(t *testing.T) {
	c := DefaultCodec()

	got, err := c.Encode(Request{
		Scheme:     DefaultPlayerScheme,
		LaunchMode: "play",
		GameInfo:   "TICKET",
		LaunchTime: "1700000000000",
		Params: []Param{
			{Key: "placelauncherurl", Value: "https://assetgame.roblox.com/game/PlaceLauncher.ashx?request=RequestGame&placeId=1818"},
			{Key: "robloxLocale", Value: "en_us"},
			{Key: "channel", Value: ""},
			{Key: "LaunchExp", Value: "InApp"},
			{Key: "safe", Value: "safe"},
			{Key: "note", Value: "a b+c"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"roblox-player:1+launchmode:play+gameinfo:TICKET+launchtime:1700000000000"+
			"+placelauncherurl:https%3A%2F%2Fassetgame.roblox.com%2Fgame%2FPlaceLauncher.ashx%3Frequest%3DRequestGame%26placeId%3D1818"+
			"+robloxLocale:en_us+channel:+LaunchExp:InApp+safe+note:a%20b%2Bc",
		got)
}

func TestEncode_StudioAuth(t *testing.T) {
	c := DefaultCodec()

	got, err := c.Encode(Request{Scheme: DefaultStudioAuthScheme, State: "s1", Code: "c/2"})
	require.NoError(t, err)
	assert.Equal(t, "roblox-studio-auth://?state=s1&code=c%2F2", got)

	got, err = c.Encode(Request{Scheme: DefaultStudioAuthScheme, State: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "roblox-studio-auth:1", got, "without both state and code the token form is used")
}

func TestEncode_Errors(t *testing.T) {
	c := DefaultCodec()

	_, err := c.Encode(Request{})
	assert.Error(t, err)

	_, err = c.Encode(Request{Scheme: DefaultPlayerScheme, Params: []Param{{Value: "x"}}})
	assert.Error(t, err)
}

func TestDecode_RoundTrip(t *testing.T) {
	c := DefaultCodec()

	in := Request{
		Scheme:     DefaultStudioScheme,
		LaunchMode: "edit",
		GameInfo:   "TICKET",
		Params: []Param{
			{Key: "task", Value: "EditPlace"},
			{Key: "placeId", Value: "1818"},
			{Key: "script", Value: "https://example.com/a b?c=d+e"},
			{Key: "avatar", Value: "avatar"},
		},
	}
	raw, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	v, ok := out.Param("script")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/a b?c=d+e", v)
	_, ok = out.Param("missing")
	assert.False(t, ok)
}

func TestDecode_StudioAuth(t *testing.T) {
	out, err := DefaultCodec().Decode("roblox-studio-auth://?state=abc&code=xyz")
	require.NoError(t, err)
	assert.Equal(t, Request{Scheme: DefaultStudioAuthScheme, State: "abc", Code: "xyz"}, out)
}

func TestDecode_SkipsEmptyValues(t *testing.T) {
	out, err := DefaultCodec().Decode("roblox-player:1+launchmode:+channel:+LaunchMode:app")
	require.NoError(t, err)
	assert.Equal(t, Request{Scheme: DefaultPlayerScheme, LaunchMode: "app"}, out)
}

func TestDecode_NotLaunchURL(t *testing.T) {
	c := DefaultCodec()

	for _, raw := range []string{
		"roblox://navigation/home",
		"roblox-player:2+launchmode:play",
		"https://www.roblox.com/games/1",
	} {
		_, err := c.Decode(raw)
		assert.ErrorIs(t, err, ErrNotLaunchURL, raw)
	}
}

func TestDecode_CustomSchemes(t *testing.T) {
	c := DefaultCodec()
	c.PlayerScheme = "acme-player"

	out, err := c.Decode("acme-player:1+launchmode:play")
	require.NoError(t, err)
	assert.Equal(t, "acme-player", out.Scheme)

	_, err = c.Decode("roblox-player:1+launchmode:play")
	assert.ErrorIs(t, err, ErrNotLaunchURL)
}

func TestPlaceLauncherURL(t *testing.T) {
	c := DefaultCodec()

	got, err := c.PlaceLauncherURL(PlaceLauncher{
		Request:            "RequestGame",
		PlaceID:            1818,
		IsPlayTogetherGame: true,
		JoinAttemptOrigin:  "PlayButton",
		Extra:              map[string]string{"custom": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"https://assetgame.roblox.com/game/PlaceLauncher.ashx?custom=1&isPlayTogetherGame=true&joinAttemptOrigin=PlayButton&placeId=1818&request=RequestGame",
		got)

	_, err = c.PlaceLauncherURL(PlaceLauncher{PlaceID: 1})
	assert.Error(t, err)
}

func TestParsePlaceLauncherURL(t *testing.T) {
	p, err := ParsePlaceLauncherURL("https://assetgame.roblox.com/game/PlaceLauncher.ashx?request=RequestGameJob&placeId=1818&gameId=0190a1b2-c3d4&isTeleport=true&isPartyLeader=false&browserTrackerId=77&custom=x")
	require.NoError(t, err)
	assert.Equal(t, PlaceLauncher{
		Request:          "RequestGameJob",
		PlaceID:          1818,
		GameID:           "0190a1b2-c3d4",
		IsTeleport:       true,
		BrowserTrackerID: 77,
		Extra:            map[string]string{"custom": "x"},
	}, p)

	_, err = ParsePlaceLauncherURL("https://assetgame.roblox.com/game/PlaceLauncher.ashx?placeId=1")
	assert.ErrorIs(t, err, ErrNotLaunchURL)

	_, err = ParsePlaceLauncherURL("https://assetgame.roblox.com/game/PlaceLauncher.ashx?request=RequestGame&placeId=abc")
	assert.Error(t, err)
}

func TestPlaceLauncher_RoundTrip(t *testing.T) {
	c := DefaultCodec()
	in := PlaceLauncher{Request: "RequestPrivateGame", PlaceID: 5, AccessCode: "a-b", LinkCode: "123", UserID: 9}

	raw, err := c.PlaceLauncherURL(in)
	require.NoError(t, err)
	out, err := ParsePlaceLauncherURL(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
