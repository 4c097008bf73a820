package launch

import (
	"fmt"
	"maps"
	"net/url"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// PlaceLauncher is a place-launcher request. Zero fields are not sent.
type PlaceLauncher struct {
	Request                  string `mapstructure:"request"`
	PlaceID                  int64  `mapstructure:"placeId,omitempty"`
	JobID                    string `mapstructure:"jobId,omitempty"`
	GameID                   string `mapstructure:"gameId,omitempty"`
	Gender                   string `mapstructure:"gender,omitempty"`
	GenderID                 int64  `mapstructure:"genderId,omitempty"`
	AccessCode               string `mapstructure:"accessCode,omitempty"`
	LinkCode                 string `mapstructure:"linkCode,omitempty"`
	LaunchData               string `mapstructure:"launchData,omitempty"`
	PrivateGameMode          string `mapstructure:"privateGameMode,omitempty"`
	TeleportType             string `mapstructure:"teleportType,omitempty"`
	ReservedServerAccessCode string `mapstructure:"reservedServerAccessCode,omitempty"`
	ReferralPage             string `mapstructure:"referralPage,omitempty"`
	ReferredByPlayerID       int64  `mapstructure:"referredByPlayerId,omitempty"`
	ConversationID           int64  `mapstructure:"conversationId,omitempty"`
	IsPartyLeader            bool   `mapstructure:"isPartyLeader,omitempty"`
	IsTeleport               bool   `mapstructure:"isTeleport,omitempty"`
	PartyGUID                string `mapstructure:"partyGuid,omitempty"`
	IsPlayTogetherGame       bool   `mapstructure:"isPlayTogetherGame,omitempty"`
	JoinAttemptID            string `mapstructure:"joinAttemptId,omitempty"`
	JoinAttemptOrigin        string `mapstructure:"joinAttemptOrigin,omitempty"`
	CallID                   string `mapstructure:"callId,omitempty"`
	BrowserTrackerID         int64  `mapstructure:"browserTrackerId,omitempty"`
	EventID                  string `mapstructure:"eventId,omitempty"`
	IsolationContext         string `mapstructure:"isolationContext,omitempty"`
	GameJoinContext          string `mapstructure:"gameJoinContext,omitempty"`
	UserID                   int64  `mapstructure:"userId,omitempty"`

	// Extra holds query keys not covered above.
	Extra map[string]string `mapstructure:"-"`
}

// PlaceLauncherURL renders p against the codec's place-launcher endpoint.
// Query keys are sorted.
func (c Codec) PlaceLauncherURL(p PlaceLauncher) (string, error) {
	if p.Request == "" {
		return "", fmt.Errorf("place launcher url: request is required")
	}

	u, err := url.Parse(c.PlaceLauncherURL)
	if err != nil {
		return "", fmt.Errorf("place launcher url: %w", err)
	}

	fields := map[string]any{}
	if err := mapstructure.Decode(p, &fields); err != nil {
		return "", fmt.Errorf("place launcher url: %w", err)
	}

	q := url.Values{}
	for _, key := range slices.Sorted(maps.Keys(p.Extra)) {
		q.Set(key, p.Extra[key])
	}
	for key, value := range fields {
		s, err := cast.ToStringE(value)
		if err != nil {
			return "", fmt.Errorf("place launcher url: field %s: %w", key, err)
		}
		q.Set(key, s)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParsePlaceLauncherURL decodes a place-launcher URL. Numeric and boolean
// fields are converted; unknown keys land in Extra. Returns ErrNotLaunchURL
// when the request key is absent.
func ParsePlaceLauncherURL(raw string) (PlaceLauncher, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PlaceLauncher{}, fmt.Errorf("parse place launcher url: %w", err)
	}

	q := u.Query()
	if q.Get("request") == "" {
		return PlaceLauncher{}, ErrNotLaunchURL
	}

	input := make(map[string]string, len(q))
	for key := range q {
		input[key] = q.Get(key)
	}

	var (
		p  PlaceLauncher
		md mapstructure.Metadata
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           &p,
	})
	if err != nil {
		return PlaceLauncher{}, fmt.Errorf("parse place launcher url: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return PlaceLauncher{}, fmt.Errorf("parse place launcher url: %w", err)
	}

	for _, key := range md.Unused {
		if p.Extra == nil {
			p.Extra = map[string]string{}
		}
		p.Extra[key] = input[key]
	}
	return p, nil
}
