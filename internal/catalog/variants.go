package catalog

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/roach88/deeplink/internal/route"
)

// Variant is the typed parameter record of one route.
type Variant interface {
	Route() route.Name
}

type SecurityFeedback struct {
	Payload string `param:"payload,omitempty"`
}

type UserContentPosts struct {
	UserID string `param:"userId,omitempty"`
	PostID string `param:"postId,omitempty"`
}

type ResolveShareLink struct {
	Type string `param:"type,omitempty"`
	Code string `param:"code,omitempty"`
}

type GiftCards struct{}

type ExternalWebLink struct {
	Domain    string `param:"domain,omitempty"`
	Locale    string `param:"locale,omitempty"`
	ArticleID string `param:"articleId,omitempty"`
	Type      string `param:"type,omitempty"`
}

type Chat struct {
	UserID string `param:"userId,omitempty"`
	ChatID string `param:"chatId,omitempty"`
}

type Appeals struct {
	ViolationID string `param:"vid,omitempty"`
}

type Home struct{}

type ExperienceEventDetails struct {
	EventID string `param:"eventId,omitempty"`
}

type CrossDeviceLogin struct {
	Code string `param:"code,omitempty"`
}

type Contacts struct {
	ContactID      string `param:"contactId,omitempty"`
	AssetID        string `param:"assetId,omitempty"`
	AvatarImageURL string `param:"avatarImageUrl,omitempty"`
}

type AvatarClothingSort struct{}

type AvatarProfilePictureEditor struct{}

type AvatarMarketplace struct{}

type UserFriends struct{}

type AvatarCustomization struct {
	ItemID   string `param:"itemId,omitempty"`
	ItemType string `param:"itemType,omitempty"`
}

type CommunityProfile struct {
	GroupID         string `param:"groupId,omitempty"`
	ForumCategoryID string `param:"forumCategoryId,omitempty"`
	ForumPostID     string `param:"forumPostId,omitempty"`
	ForumCommentID  string `param:"forumCommentId,omitempty"`
}

// UserProfile is a full profile, or the compact profile card when
// IsProfileCard is non-empty.
type UserProfile struct {
	UserID        string `param:"userId,omitempty"`
	IsProfileCard string `param:"isProfileCard,omitempty"`
}

type NavigationMore struct{}

type Charts struct{}

// ItemDetails.ItemType is one of Asset, Look or Bundle.
type ItemDetails struct {
	ItemType string `param:"itemType,omitempty"`
	ItemID   string `param:"itemId,omitempty"`
}

type Settings struct {
	TabID string `param:"tabId,omitempty"`
}

type JoinUser struct {
	UserID            string `param:"userId,omitempty"`
	JoinAttemptID     string `param:"joinAttemptId,omitempty"`
	JoinAttemptOrigin string `param:"joinAttemptOrigin,omitempty"`
	BrowserTrackerID  string `param:"browserTrackerId,omitempty"`
}

// ItemQRCodeRedemption.ItemType is Asset or Bundle.
type ItemQRCodeRedemption struct {
	ItemType string `param:"itemType,omitempty"`
	ItemID   string `param:"itemId,omitempty"`
}

type JoinPlace struct {
	PlaceID                  string `param:"placeId,omitempty"`
	GameInstanceID           string `param:"gameInstanceId,omitempty"`
	AccessCode               string `param:"accessCode,omitempty"`
	LinkCode                 string `param:"linkCode,omitempty"`
	LaunchData               string `param:"launchData,omitempty"`
	JoinAttemptID            string `param:"joinAttemptId,omitempty"`
	JoinAttemptOrigin        string `param:"joinAttemptOrigin,omitempty"`
	ReservedServerAccessCode string `param:"reservedServerAccessCode,omitempty"`
	CallID                   string `param:"callId,omitempty"`
	BrowserTrackerID         string `param:"browserTrackerId,omitempty"`
	ReferralPage             string `param:"referralPage,omitempty"`
	ReferredByPlayerID       string `param:"referredByPlayerId,omitempty"`
	EventID                  string `param:"eventId,omitempty"`
	IsoContext               string `param:"isoContext,omitempty"`
}

// ExperienceDetails carries both identifier spaces once resolved: GameID is
// the universe, PlaceID its root place.
type ExperienceDetails struct {
	GameID                string `param:"gameId,omitempty"`
	PlaceID               string `param:"placeId,omitempty"`
	PrivateServerLinkCode string `param:"privateServerLinkCode,omitempty"`
}

func (SecurityFeedback) Route() route.Name           { return RouteSecurityFeedback }
func (UserContentPosts) Route() route.Name           { return RouteUserContentPosts }
func (ResolveShareLink) Route() route.Name           { return RouteResolveShareLink }
func (GiftCards) Route() route.Name                  { return RouteGiftCards }
func (ExternalWebLink) Route() route.Name            { return RouteExternalWebLink }
func (Chat) Route() route.Name                       { return RouteChat }
func (Appeals) Route() route.Name                    { return RouteAppeals }
func (Home) Route() route.Name                       { return RouteHome }
func (ExperienceEventDetails) Route() route.Name     { return RouteExperienceEventDetails }
func (CrossDeviceLogin) Route() route.Name           { return RouteCrossDeviceLogin }
func (Contacts) Route() route.Name                   { return RouteContacts }
func (AvatarClothingSort) Route() route.Name         { return RouteAvatarClothingSort }
func (AvatarProfilePictureEditor) Route() route.Name { return RouteAvatarProfilePictureEditor }
func (AvatarMarketplace) Route() route.Name          { return RouteAvatarMarketplace }
func (UserFriends) Route() route.Name                { return RouteUserFriends }
func (AvatarCustomization) Route() route.Name        { return RouteAvatarCustomization }
func (CommunityProfile) Route() route.Name           { return RouteCommunityProfile }
func (UserProfile) Route() route.Name                { return RouteUserProfile }
func (NavigationMore) Route() route.Name             { return RouteNavigationMore }
func (Charts) Route() route.Name                     { return RouteCharts }
func (ItemDetails) Route() route.Name                { return RouteItemDetails }
func (Settings) Route() route.Name                   { return RouteSettings }
func (JoinUser) Route() route.Name                   { return RouteJoinUser }
func (ItemQRCodeRedemption) Route() route.Name       { return RouteItemQRCodeRedemption }
func (JoinPlace) Route() route.Name                  { return RouteJoinPlace }
func (ExperienceDetails) Route() route.Name          { return RouteExperienceDetails }

// NewVariant returns a pointer to the zero variant for name, or nil if the
// route is not part of the catalog.
func NewVariant(name route.Name) Variant {
	switch name {
	case RouteSecurityFeedback:
		return &SecurityFeedback{}
	case RouteUserContentPosts:
		return &UserContentPosts{}
	case RouteResolveShareLink:
		return &ResolveShareLink{}
	case RouteGiftCards:
		return &GiftCards{}
	case RouteExternalWebLink:
		return &ExternalWebLink{}
	case RouteChat:
		return &Chat{}
	case RouteAppeals:
		return &Appeals{}
	case RouteHome:
		return &Home{}
	case RouteExperienceEventDetails:
		return &ExperienceEventDetails{}
	case RouteCrossDeviceLogin:
		return &CrossDeviceLogin{}
	case RouteContacts:
		return &Contacts{}
	case RouteAvatarClothingSort:
		return &AvatarClothingSort{}
	case RouteAvatarProfilePictureEditor:
		return &AvatarProfilePictureEditor{}
	case RouteAvatarMarketplace:
		return &AvatarMarketplace{}
	case RouteUserFriends:
		return &UserFriends{}
	case RouteAvatarCustomization:
		return &AvatarCustomization{}
	case RouteCommunityProfile:
		return &CommunityProfile{}
	case RouteUserProfile:
		return &UserProfile{}
	case RouteNavigationMore:
		return &NavigationMore{}
	case RouteCharts:
		return &Charts{}
	case RouteItemDetails:
		return &ItemDetails{}
	case RouteSettings:
		return &Settings{}
	case RouteJoinUser:
		return &JoinUser{}
	case RouteItemQRCodeRedemption:
		return &ItemQRCodeRedemption{}
	case RouteJoinPlace:
		return &JoinPlace{}
	case RouteExperienceDetails:
		return &ExperienceDetails{}
	default:
		return nil
	}
}

// Decode converts a parameter record into the typed variant of name.
// Keys the variant does not declare are ignored.
func Decode(name route.Name, params route.Params) (Variant, error) {
	v := NewVariant(name)
	if v == nil {
		return nil, route.NewUnknownRouteError(name)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "param",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return nil, fmt.Errorf("variant decoder for %s: %w", name, err)
	}
	if err := dec.Decode(map[string]string(params)); err != nil {
		return nil, fmt.Errorf("decode %s params: %w", name, err)
	}
	return v, nil
}

// Encode flattens a variant into a parameter map suitable for building a
// link. Empty fields are omitted.
func Encode(v Variant) (map[string]any, error) {
	if v == nil {
		return nil, fmt.Errorf("encode variant: nil")
	}

	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "param",
		Result:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("variant encoder for %s: %w", v.Route(), err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", v.Route(), err)
	}
	return out, nil
}
