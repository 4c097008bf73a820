package route

import (
	"context"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_NoTemplate(t *testing.T) {
	def := &Definition{Name: "chat"}

	_, ok := Render(def, SurfaceProtocol, Params{"userId": "1"})
	assert.False(t, ok)
	_, ok = Render(def, SurfaceWebsite, Params{"userId": "1"})
	assert.False(t, ok)
}

func TestRender_PlaceholdersConsumeParams(t *testing.T) {
	def := &Definition{
		Name:      "events",
		ToWebsite: Literal("/events/{eventId}"),
	}

	got, ok := Render(def, SurfaceWebsite, Params{"eventId": "4821"})
	require.True(t, ok)
	assert.Equal(t, "/events/4821", got)
}

func TestRender_SortedQuery(t *testing.T) {
	def := &Definition{
		Name:       "join",
		ToProtocol: Literal("experiences/start"),
	}

	got, ok := Render(def, SurfaceProtocol, Params{"placeId": "1", "accessCode": "x y", "linkCode": "2"})
	require.True(t, ok)
	assert.Equal(t, "experiences/start?accessCode=x+y&linkCode=2&placeId=1", got)
}

func TestRender_Visibility(t *testing.T) {
	def := &Definition{
		Name: "profile",
		Arbitrary: map[string]Visibility{
			"userId": OnlyProtocol,
			"card":   Hidden,
			"web":    OnlyWebsite,
		},
		ToProtocol: Literal("navigation/profile"),
		ToWebsite:  Literal("/users/{userId}/profile"),
	}
	params := Params{"userId": "5", "card": "_card", "web": "w", "both": "b"}

	got, ok := Render(def, SurfaceProtocol, params)
	require.True(t, ok)
	assert.Equal(t, "navigation/profile?both=b&userId=5", got)

	got, ok = Render(def, SurfaceWebsite, params)
	require.True(t, ok)
	assert.Equal(t, "/users/5/profile?both=b&web=w", got, "placeholders win over visibility")
}

func TestRender_FragmentAfterQuery(t *testing.T) {
	def := &Definition{
		Name:      "appeals",
		ToWebsite: Literal("/report-appeals#/v/{vid}"),
	}

	got, ok := Render(def, SurfaceWebsite, Params{"vid": "77", "extra": "1"})
	require.True(t, ok)
	assert.Equal(t, "/report-appeals?extra=1#/v/77", got)
}

func TestRender_UnresolvedPlaceholderIsEmpty(t *testing.T) {
	def := &Definition{
		Name:      "appeals",
		ToWebsite: Literal("/report-appeals#/v/{vid}"),
	}

	got, ok := Render(def, SurfaceWebsite, Params{})
	require.True(t, ok)
	assert.Equal(t, "/report-appeals#/v/", got)
}

func TestRender_TemplateFunc(t *testing.T) {
	def := &Definition{
		Name: "profile",
		ToProtocol: func(p Params) string {
			if p["card"] != "" {
				return "navigation/profile_card"
			}
			return "navigation/profile"
		},
		Arbitrary: map[string]Visibility{"card": Hidden},
	}

	got, _ := Render(def, SurfaceProtocol, Params{"card": "_card"})
	assert.Equal(t, "navigation/profile_card", got)
	got, _ = Render(def, SurfaceProtocol, Params{})
	assert.Equal(t, "navigation/profile", got)
}

func TestBuild(t *testing.T) {
	def := &Definition{
		Name: "item",
		ProtocolPatterns: []Pattern{{
			Regex: regexp.MustCompile(`^navigation/item_details$`),
			Query: []QueryParam{
				{Name: "itemType", Format: regexp.MustCompile(`^(Asset|Bundle)$`), Required: true},
				{Name: "itemId", Format: regexp.MustCompile(`^\d+$`), Required: true},
				{Name: "ref"},
			},
		}},
		Arbitrary: map[string]Visibility{"note": OnlyProtocol},
	}

	t.Run("keeps declared keys", func(t *testing.T) {
		params, err := Build(def, map[string]string{
			"itemType": "Asset",
			"itemId":   "99",
			"note":     "n",
			"unknown":  "dropped",
			"ref":      "",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, Params{"itemType": "Asset", "itemId": "99", "note": "n"}, params)
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := Build(def, map[string]string{"itemType": "Asset"}, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidParams(err))
		assert.Equal(t, ErrCodeMissingParameter, CodeOf(err))
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := Build(def, map[string]string{"itemType": "Hat", "itemId": "1"}, nil)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidParameter, CodeOf(err))
	})

	t.Run("disallowed key", func(t *testing.T) {
		params, err := Build(def, map[string]string{"itemType": "Asset", "itemId": "1", "ref": "home"}, []string{"ref"})
		require.NoError(t, err)
		assert.NotContains(t, params, "ref")
	})

	t.Run("disallowed required key is missing", func(t *testing.T) {
		_, err := Build(def, map[string]string{"itemType": "Asset", "itemId": "1"}, []string{"itemId"})
		assert.Equal(t, ErrCodeMissingParameter, CodeOf(err))
	})
}

func TestBuild_RecordMustReadBack(t *testing.T) {
	profile := &Definition{
		Name: "profile",
		ProtocolPatterns: []Pattern{{
			Regex: regexp.MustCompile(`^navigation/profile(?P<card>_card)?$`),
			Path:  []PathParam{{Name: "card"}},
			Query: []QueryParam{{Name: "userId", Format: regexp.MustCompile(`^\d+$`), Group: "primary"}},
		}},
		WebsitePatterns: []Pattern{{
			Regex: regexp.MustCompile(`^/users/(?P<userId>\d+)`),
			Path:  []PathParam{{Name: "userId"}},
		}},
		ToProtocol: Literal("navigation/profile"),
		ToWebsite:  Literal("/users/{userId}/profile"),
	}

	t.Run("unsatisfied group", func(t *testing.T) {
		_, err := Build(profile, map[string]string{}, nil)
		require.Error(t, err)
		assert.Equal(t, ErrCodeMissingParameter, CodeOf(err))
		assert.Contains(t, err.Error(), `"userId"`)
	})

	t.Run("optional capture may be absent", func(t *testing.T) {
		params, err := Build(profile, map[string]string{"userId": "5"}, nil)
		require.NoError(t, err)
		assert.Equal(t, Params{"userId": "5"}, params)
	})

	t.Run("path placeholder must be filled", func(t *testing.T) {
		settings := &Definition{
			Name: "settings",
			ProtocolPatterns: []Pattern{{
				Regex: regexp.MustCompile(`^navigation/(?P<tab>privacy|account)$`),
				Path:  []PathParam{{Name: "tab"}},
			}},
			ToProtocol: Literal("navigation/{tab}"),
		}

		_, err := Build(settings, map[string]string{}, nil)
		assert.Equal(t, ErrCodeMissingParameter, CodeOf(err))

		params, err := Build(settings, map[string]string{"tab": "privacy"}, nil)
		require.NoError(t, err)
		assert.Equal(t, Params{"tab": "privacy"}, params)
	})

	t.Run("placeholder only on the other surface", func(t *testing.T) {
		game := &Definition{
			Name: "game",
			ProtocolPatterns: []Pattern{{
				Regex: regexp.MustCompile(`^navigation/game_details$`),
				Query: []QueryParam{{Name: "gameId", Required: true}},
			}},
			WebsitePatterns: []Pattern{{
				Regex: regexp.MustCompile(`^/games/(?P<placeId>\d+)`),
				Path:  []PathParam{{Name: "placeId"}},
			}},
			Arbitrary:  map[string]Visibility{"placeId": OnlyWebsite},
			ToProtocol: Literal("navigation/game_details"),
			ToWebsite:  Literal("/games/{placeId}/name"),
		}

		_, err := Build(game, map[string]string{"gameId": "1"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"placeId"`)

		_, err = Build(game, map[string]string{"gameId": "1", "placeId": "2"}, nil)
		assert.NoError(t, err)
	})

	t.Run("fragment placeholder may be empty", func(t *testing.T) {
		appeals := &Definition{
			Name: "appeals",
			ProtocolPatterns: []Pattern{{
				Regex: regexp.MustCompile(`^navigation/appeals$`),
				Query: []QueryParam{{Name: "vid"}},
			}},
			WebsitePatterns: []Pattern{{Regex: regexp.MustCompile(`^/report-appeals$`)}},
			ToProtocol:      Literal("navigation/appeals"),
			ToWebsite:       Literal("/report-appeals#/v/{vid}"),
		}

		_, err := Build(appeals, nil, nil)
		assert.NoError(t, err)
	})

	t.Run("transformed surface skips path captures", func(t *testing.T) {
		item := &Definition{
			Name: "item",
			WebsitePatterns: []Pattern{{
				Regex: regexp.MustCompile(`^/(?P<pageType>catalog|bundles)/(?P<itemId>\d+)`),
				Path:  []PathParam{{Name: "pageType"}, {Name: "itemId"}},
			}},
			TransformWebsite: func(_ context.Context, p Params, _ *url.URL) (Params, error) {
				return p, nil
			},
			ToWebsite: Literal("/catalog/{itemId}/name"),
		}

		params, err := Build(item, map[string]string{"itemId": "3"}, nil)
		require.NoError(t, err)
		assert.Equal(t, Params{"itemId": "3"}, params)
	})
}

func TestMandatoryCaptures(t *testing.T) {
	re := regexp.MustCompile(`(?i)^/(?P<a>x|y)/(?P<b>\d+)(?:/(?P<c>\w+))?(?P<d>z)*(?:(?P<e>p)|q)$`)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, mandatoryCaptures(re))
}

func TestDefinition_Declares(t *testing.T) {
	def := &Definition{
		Name: "d",
		ProtocolPatterns: []Pattern{{
			Regex: regexp.MustCompile(`^x$`),
			Query: []QueryParam{{Name: "raw", MappedName: "canonical"}},
		}},
		Arbitrary: map[string]Visibility{"extra": OnlyProtocol},
	}

	assert.True(t, def.Declares("canonical"))
	assert.True(t, def.Declares("extra"))
	assert.False(t, def.Declares("raw"))
}

func TestDescribe(t *testing.T) {
	def := &Definition{
		Name: "item",
		ProtocolPatterns: []Pattern{{
			Regex: regexp.MustCompile(`^navigation/item_details$`),
			Query: []QueryParam{
				{Name: "itemType", Required: true},
				{Name: "itemId", Required: true},
				{Name: "ref"},
			},
		}},
		WebsitePatterns: []Pattern{{
			Regex: regexp.MustCompile(`^/catalog/(?P<itemId>\d+)`),
			Path:  []PathParam{{Name: "itemId"}},
		}},
		Arbitrary:  map[string]Visibility{"note": OnlyProtocol},
		ToProtocol: Literal("navigation/item_details"),
	}

	got := Describe(def)
	assert.Equal(t, Summary{
		Name:             "item",
		ProtocolPatterns: 1,
		WebsitePatterns:  1,
		ProtocolURL:      true,
		WebsiteURL:       false,
		Required:         []string{"itemType", "itemId"},
		Optional:         []string{"note", "ref"},
	}, got)
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable(&Definition{Name: "a"}, &Definition{Name: "a"})
	assert.Error(t, err)

	_, err = NewTable(&Definition{})
	assert.Error(t, err)

	_, err = NewTable(&Definition{Name: "a", WebsitePatterns: []Pattern{{}}})
	assert.Error(t, err)

	table, err := NewTable(&Definition{Name: "a"}, &Definition{Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, []Name{"a", "b"}, table.Names())
	assert.Equal(t, 2, table.Len())

	def, ok := table.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, Name("b"), def.Name)
	_, ok = table.Lookup("c")
	assert.False(t, ok)
}

func TestErrors(t *testing.T) {
	err := NewNoMatchError("app://x")
	assert.True(t, IsNoMatch(err))
	assert.False(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "url=app://x")

	assert.True(t, IsUnknownRoute(NewUnknownRouteError("nope")))
	assert.True(t, IsMalformed(NewMalformedError("::", nil)))
	assert.Equal(t, ErrorCode(""), CodeOf(assert.AnError))
}
