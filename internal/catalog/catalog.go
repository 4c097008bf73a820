// Package catalog holds the concrete deep-link route table.
//
// Order matters. Routes earlier in the table win over later ones when both
// accept a URL; in particular joinUser and joinPlace share the bare
// "experiences/start" protocol path and are told apart by their required
// query parameters, and the profile routes rely on communityProfile
// rejecting "navigation/profile" links without a groupId.
package catalog

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/deeplink/internal/idresolve"
	"github.com/roach88/deeplink/internal/route"
)

// DefaultWebsiteHost is the canonical website host.
const DefaultWebsiteHost = "www.roblox.com"

// errNoLookup is returned by transforms whose identifier lookup is unset.
var errNoLookup = errors.New("identifier lookup not configured")

// Config carries what the table closes over.
type Config struct {
	// WebsiteHost is used to derive the help-center host.
	WebsiteHost string

	// PlaceUniverse resolves a place ID to its universe ID.
	PlaceUniverse idresolve.Lookup

	// UniverseRootPlace resolves a universe ID to its root place ID.
	UniverseRootPlace idresolve.Lookup
}

// New builds the route table.
func New(cfg Config) *route.Table {
	if cfg.WebsiteHost == "" {
		cfg.WebsiteHost = DefaultWebsiteHost
	}
	return route.MustTable(definitions(cfg)...)
}

// helpHost derives the help-center host from the website host,
// e.g. www.roblox.com -> en.help.roblox.com.
func helpHost(websiteHost string) string {
	if strings.HasPrefix(websiteHost, "www.") {
		return "en.help." + strings.TrimPrefix(websiteHost, "www.")
	}
	return "en.help." + websiteHost
}

func definitions(cfg Config) []*route.Definition {
	uuidFmt := uuidFormat{}

	return []*route.Definition{
		{
			Name: RouteSecurityFeedback,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/security_alert$`),
					Query: []route.QueryParam{{Name: "payload", Required: true}},
				},
				{
					Regex: rxi(`^security-feedback(-v2)?$`),
					Query: []route.QueryParam{{Name: "payload", Required: true}},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/security-feedback(-v2)?$`),
					Query: []route.QueryParam{{Name: "payload", Required: true}},
				},
			},
			ToProtocol: route.Literal("navigation/security_alert"),
			ToWebsite:  route.Literal("/security-feedback"),
		},
		{
			Name: RouteUserContentPosts,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/content_posts$`),
					Query: []route.QueryParam{
						{Name: "userId", Format: digits, Required: true},
						{Name: "postId", Format: uuidFmt},
					},
				},
			},
			ToProtocol: route.Literal("navigation/content_posts"),
		},
		{
			Name: RouteResolveShareLink,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/share_links$`),
					Query: []route.QueryParam{
						{Name: "type", Required: true},
						{Name: "code", Required: true},
					},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/share(-links)?$`),
					Query: []route.QueryParam{
						{Name: "code", Required: true},
						{Name: "type", Required: true},
					},
				},
			},
			ToProtocol: route.Literal("navigation/share_links"),
			ToWebsite:  route.Literal("/share-links"),
		},
		{
			Name:             RouteGiftCards,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/gift_cards$`)}},
			WebsitePatterns:  []route.Pattern{{Regex: rxi(`^/giftcards$`)}},
			ToProtocol:       route.Literal("navigation/gift_cards"),
			ToWebsite:        route.Literal("/giftcards"),
		},
		{
			Name: RouteExternalWebLink,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/external_web_link$`),
					Query: []route.QueryParam{
						{Name: "domain", Format: rxi(`^(zendesk)$`), Required: true},
						{Name: "locale", Format: locale},
						{Name: "articleId", Format: digits},
						{Name: "type", Format: rx(`^(policy_update|parental_controls_launch|spending_settings)$`)},
					},
				},
			},
			Arbitrary: map[string]route.Visibility{
				"domain": route.OnlyProtocol,
				"type":   route.OnlyProtocol,
			},
			ToProtocol: route.Literal("navigation/external_web_link"),
			ToWebsite:  route.Literal("https://" + helpHost(cfg.WebsiteHost) + "/hc/{locale}/articles/{articleId}"),
		},
		{
			Name: RouteChat,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/chat$`),
					Query: []route.QueryParam{
						{Name: "userId", Format: digits},
						{Name: "chatId", Format: uuidFmt},
					},
				},
			},
		},
		{
			Name: RouteAppeals,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/appeals$`),
					Query: []route.QueryParam{{Name: "vid", Format: digits}},
				},
			},
			WebsitePatterns:  []route.Pattern{{Regex: rxi(`^/report-appeals$`)}},
			TransformWebsite: appealFromFragment,
			ToProtocol:       route.Literal("navigation/appeals"),
			ToWebsite:        route.Literal("/report-appeals#/v/{vid}"),
		},
		{
			Name:             RouteHome,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/home$`)}},
			WebsitePatterns:  []route.Pattern{{Regex: rxi(`^/home$`)}},
			ToProtocol:       route.Literal("navigation/home"),
			ToWebsite:        route.Literal("/home"),
		},
		{
			Name: RouteExperienceEventDetails,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/event_details$`),
					Query: []route.QueryParam{{Name: "eventId", Format: digits, Required: true}},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/events/(?P<eventId>\d+)$`),
					Path:  []route.PathParam{{Name: "eventId"}},
				},
			},
			ToProtocol: route.Literal("navigation/event_details"),
			ToWebsite:  route.Literal("/events/{eventId}"),
		},
		{
			Name: RouteCrossDeviceLogin,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/crossdevice$`),
					Query: []route.QueryParam{{Name: "code"}},
				},
			},
			WebsitePatterns: []route.Pattern{{Regex: rxi(`^/crossdevicelogin/confirmcode$`)}},
			Arbitrary: map[string]route.Visibility{
				"code": route.OnlyProtocol,
			},
			ToProtocol: route.Literal("navigation/crossdevice"),
			ToWebsite:  route.Literal("/crossdevicelogin/ConfirmCode"),
		},
		{
			Name: RouteContacts,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/contacts$`),
					Query: []route.QueryParam{
						{Name: "contactId", Format: uuidFmt},
						{Name: "assetId", Format: digits},
						{Name: "avatarImageUrl"},
					},
				},
			},
			ToProtocol: route.Literal("navigation/contacts"),
		},
		{
			Name:             RouteAvatarClothingSort,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/avatar_clothing_sort$`)}},
			ToProtocol:       route.Literal("navigation/avatar_clothing_sort"),
		},
		{
			Name:             RouteAvatarProfilePictureEditor,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/avatar_profile_picture_editor$`)}},
			ToProtocol:       route.Literal("navigation/avatar_profile_picture_editor"),
		},
		{
			Name:             RouteAvatarMarketplace,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/catalog$`)}},
			WebsitePatterns:  []route.Pattern{{Regex: rxi(`^/catalog$`)}},
			ToProtocol:       route.Literal("navigation/catalog"),
			ToWebsite:        route.Literal("/catalog"),
		},
		{
			Name:             RouteUserFriends,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/friends$`)}},
			WebsitePatterns:  []route.Pattern{{Regex: rxi(`^/users/friends$`)}},
			ToProtocol:       route.Literal("navigation/friends"),
			ToWebsite:        route.Literal("/users/friends"),
		},
		{
			Name: RouteAvatarCustomization,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/avatar$`),
					Query: []route.QueryParam{
						{Name: "itemId", Format: digits},
						{Name: "itemType"},
					},
				},
			},
			WebsitePatterns: []route.Pattern{{Regex: rxi(`^/my/avatar$`)}},
			Arbitrary: map[string]route.Visibility{
				"itemType": route.OnlyProtocol,
				"itemId":   route.OnlyProtocol,
			},
			ToProtocol: route.Literal("navigation/avatar"),
			ToWebsite:  route.Literal("/my/avatar"),
		},
		{
			Name: RouteCommunityProfile,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/profile$`),
					Query: []route.QueryParam{{Name: "groupId", Required: true}},
				},
				{
					Regex: rxi(`^navigation/group$`),
					Query: []route.QueryParam{
						{Name: "groupId", Format: digits, Required: true},
						{Name: "forumCategoryId"},
						{Name: "forumPostId"},
						{Name: "forumCommentId"},
					},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/(groups|communities)/(?P<groupId>\d+)`),
					Path:  []route.PathParam{{Name: "groupId"}},
				},
			},
			TransformWebsite: communityForumFromFragment,
			ToProtocol:       route.Literal("navigation/group"),
			ToWebsite:        communityWebsitePath,
		},
		{
			Name: RouteUserProfile,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/profile(?P<isProfileCard>_card)?$`),
					Path:  []route.PathParam{{Name: "isProfileCard"}},
					Query: []route.QueryParam{
						{Name: "userId", Format: digits, Group: "primaryParameter"},
					},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/users/(?P<userId>\d+)`),
					Path:  []route.PathParam{{Name: "userId"}},
				},
			},
			Arbitrary: map[string]route.Visibility{
				"isProfileCard": route.OnlyWebsite,
				"userId":        route.OnlyProtocol,
			},
			ToProtocol: func(p route.Params) string {
				if p["isProfileCard"] != "" {
					return "navigation/profile_card"
				}
				return "navigation/profile"
			},
			ToWebsite: route.Literal("/users/{userId}/profile"),
		},
		{
			Name:             RouteNavigationMore,
			ProtocolPatterns: []route.Pattern{{Regex: rxi(`^navigation/more$`)}},
			ToProtocol:       route.Literal("navigation/more"),
		},
		{
			Name: RouteCharts,
			ProtocolPatterns: []route.Pattern{
				{Regex: rxi(`^navigation/games$`)},
				{Regex: rxi(`^navigation/charts$`)},
			},
			WebsitePatterns: []route.Pattern{{Regex: rxi(`^/charts$`)}},
			ToProtocol:      route.Literal("navigation/charts"),
			ToWebsite:       route.Literal("/charts"),
		},
		{
			Name: RouteItemDetails,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/item_details$`),
					Query: []route.QueryParam{
						{Name: "itemType", Format: rxi(`^(Asset|Look|Bundle)$`), Required: true},
						{Name: "itemId", Format: digits, Required: true},
					},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/(?P<pageType>catalog|bundles|looks)/(?P<itemId>\d+)`),
					Path:  []route.PathParam{{Name: "pageType"}, {Name: "itemId"}},
				},
			},
			Arbitrary: map[string]route.Visibility{
				"itemType": route.OnlyProtocol,
				"itemId":   route.OnlyProtocol,
			},
			TransformWebsite: itemFromPageType,
			ToProtocol:       route.Literal("navigation/item_details"),
			ToWebsite: func(p route.Params) string {
				switch strings.ToLower(p["itemType"]) {
				case "asset":
					return "/catalog/{itemId}/name"
				case "look":
					return "/looks/{itemId}/name"
				default:
					return "/bundles/{itemId}/name"
				}
			},
		},
		{
			Name: RouteSettings,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/(?P<tabId>notification_settings|account_info|privacy_settings|parental_controls|spending_settings)$`),
					Path:  []route.PathParam{{Name: "tabId"}},
				},
			},
			WebsitePatterns:  []route.Pattern{{Regex: rxi(`^/my/account$`)}},
			TransformWebsite: settingsTabFromFragment,
			Arbitrary: map[string]route.Visibility{
				"tabId": route.OnlyProtocol,
			},
			ToProtocol: route.Literal("navigation/{tabId}"),
			ToWebsite:  settingsWebsitePath,
		},
		{
			Name: RouteJoinUser,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^(experiences/start)?$`),
					Query: []route.QueryParam{
						{Name: "userId", Format: digits, Required: true},
						{Name: "joinAttemptId", Format: uuidFmt},
						{Name: "joinAttemptOrigin"},
						{Name: "browserTrackerId", Format: digits},
					},
				},
			},
			ToProtocol: route.Literal("experiences/start"),
		},
		{
			Name: RouteItemQRCodeRedemption,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/qr_code_redemption$`),
					Query: []route.QueryParam{
						{Name: "itemType", Format: rxi(`^(Asset|Bundle)$`), Required: true},
						{Name: "itemId", Format: digits, Required: true},
					},
				},
			},
			Arbitrary: map[string]route.Visibility{
				"itemId":   route.OnlyProtocol,
				"itemType": route.OnlyProtocol,
			},
			ToProtocol: route.Literal("navigation/qr_code_redemption"),
			ToWebsite: func(p route.Params) string {
				if strings.EqualFold(p["itemType"], "asset") {
					return "/catalog/{itemId}/name"
				}
				return "/bundles/{itemId}/name"
			},
		},
		{
			Name: RouteJoinPlace,
			ProtocolPatterns: []route.Pattern{
				{Regex: rxi(`^(experiences/start)?$`), Query: joinPlaceQuery(uuidFmt)},
			},
			WebsitePatterns: []route.Pattern{
				{Regex: rxi(`^/games/start$`), Query: joinPlaceQuery(uuidFmt)},
			},
			ToProtocol: route.Literal("experiences/start"),
			ToWebsite:  route.Literal("/games/start"),
		},
		{
			Name: RouteExperienceDetails,
			ProtocolPatterns: []route.Pattern{
				{
					Regex: rxi(`^navigation/game_details$`),
					Query: []route.QueryParam{
						{Name: "gameId", Format: digits, Required: true},
						{Name: "privateServerLinkCode", Format: digits},
					},
				},
			},
			WebsitePatterns: []route.Pattern{
				{
					Regex: rxi(`^/games/(?P<placeId>\d+)`),
					Path:  []route.PathParam{{Name: "placeId"}},
					Query: []route.QueryParam{{Name: "privateServerLinkCode", Format: digits}},
				},
			},
			Arbitrary: map[string]route.Visibility{
				"gameId":  route.OnlyProtocol,
				"placeId": route.OnlyWebsite,
			},
			TransformProtocol: resolveInto("gameId", "placeId", cfg.UniverseRootPlace),
			TransformWebsite:  resolveInto("placeId", "gameId", cfg.PlaceUniverse),
			ToProtocol:        route.Literal("navigation/game_details"),
			ToWebsite:         route.Literal("/games/{placeId}/name"),
		},
	}
}

func joinPlaceQuery(uuidFmt route.Format) []route.QueryParam {
	return []route.QueryParam{
		{Name: "placeId", Format: digits, Required: true},
		{Name: "gameInstanceId", Format: uuidFmt},
		{Name: "accessCode"},
		{Name: "linkCode", Format: digits},
		{Name: "launchData"},
		{Name: "joinAttemptId", Format: uuidFmt},
		{Name: "joinAttemptOrigin"},
		{Name: "reservedServerAccessCode"},
		{Name: "callId", Format: uuidFmt},
		{Name: "browserTrackerId", Format: digits},
		{Name: "referralPage"},
		{Name: "referredByPlayerId", Format: digits},
		{Name: "eventId", Format: rx(`\d+$`)},
		{Name: "isoContext"},
	}
}

// resolveInto returns a transform that looks up params[from] and stores the
// result under to. An unresolved identifier rejects the candidate.
func resolveInto(from, to string, lookup idresolve.Lookup) route.TransformFunc {
	return func(ctx context.Context, params route.Params, _ *url.URL) (route.Params, error) {
		if lookup == nil {
			return nil, errNoLookup
		}
		id, err := idresolve.ParseID(params[from])
		if err != nil {
			return nil, err
		}
		resolved, err := lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		out := params.Clone()
		out[to] = strconv.FormatInt(resolved, 10)
		return out, nil
	}
}

// fragmentParts splits a URL fragment on '/'. The fragment "/v/123" yields
// ["", "v", "123"].
func fragmentParts(u *url.URL) []string {
	if u == nil {
		return nil
	}
	return strings.Split(u.Fragment, "/")
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// appealFromFragment reads the violation ID from "#/v/{vid}".
func appealFromFragment(_ context.Context, _ route.Params, u *url.URL) (route.Params, error) {
	out := route.Params{}
	if vid := part(fragmentParts(u), 2); vid != "" {
		out["vid"] = vid
	}
	return out, nil
}

// communityForumFromFragment reads forum navigation state from
// "#!/forums/{category}/post/{post}/comment/{comment}".
func communityForumFromFragment(_ context.Context, params route.Params, u *url.URL) (route.Params, error) {
	parts := fragmentParts(u)
	if part(parts, 1) != "forums" {
		return params, nil
	}

	out := route.Params{"groupId": params["groupId"]}
	for key, i := range map[string]int{"forumCategoryId": 2, "forumPostId": 4, "forumCommentId": 6} {
		if v := part(parts, i); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

func communityWebsitePath(p route.Params) string {
	path := "/groups/{groupId}"
	if p["forumCategoryId"] != "" && p["forumPostId"] != "" && p["forumCommentId"] != "" {
		path += "#!/forums/{forumCategoryId}/post/{forumPostId}/comment/{forumCommentId}"
	}
	return path
}

func itemFromPageType(_ context.Context, params route.Params, _ *url.URL) (route.Params, error) {
	itemType := "Look"
	switch strings.ToLower(params["pageType"]) {
	case "catalog":
		itemType = "Asset"
	case "bundles":
		itemType = "Bundle"
	}
	return route.Params{"itemType": itemType, "itemId": params["itemId"]}, nil
}

// settingsTabs pairs protocol tab IDs with website fragments.
// account_info is the fallback in both directions.
var settingsTabs = []struct {
	tab      string
	fragment string
}{
	{"privacy_settings", "privacy"},
	{"parental_controls", "parental-controls"},
	{"notification_settings", "notifications"},
	{"spending_settings", "payment-methods"},
}

func settingsTabFromFragment(_ context.Context, _ route.Params, u *url.URL) (route.Params, error) {
	var fragment string
	if u != nil {
		_, fragment, _ = strings.Cut(u.Fragment, "!/")
	}

	tab := "account_info"
	for _, t := range settingsTabs {
		if fragment == t.fragment {
			tab = t.tab
			break
		}
	}
	return route.Params{"tabId": tab}, nil
}

func settingsWebsitePath(p route.Params) string {
	for _, t := range settingsTabs {
		if p["tabId"] == t.tab {
			return "/my/account#!/" + t.fragment
		}
	}
	return "/my/account#!/info"
}
