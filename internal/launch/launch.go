// Package launch encodes and decodes authenticated client launch URLs and
// place-launcher request URLs.
//
// Launch URLs use a token format rather than URL syntax:
//
//	roblox-player:1+launchmode:play+gameinfo:TICKET+placelauncherurl:https%3A%2F%2F...
//
// The first token is the format version. Each further token is key:value with
// a percent-encoded value, or a bare flag. The studio sign-in callback is the
// exception and uses ordinary query syntax:
//
//	roblox-studio-auth://?state=STATE&code=CODE
package launch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultPlayerScheme     = "roblox-player"
	DefaultStudioScheme     = "roblox-studio"
	DefaultStudioAuthScheme = "roblox-studio-auth"
	DefaultPlaceLauncherURL = "https://assetgame.roblox.com/game/PlaceLauncher.ashx"
)

// formatVersion is the leading token of every token-format URL.
const formatVersion = "1"

// ErrNotLaunchURL is returned by decoders for input of another shape.
var ErrNotLaunchURL = errors.New("not a launch url")

// Param is one extra launch token. A flag has Value equal to Key.
type Param struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Request is the decoded form of a launch URL.
type Request struct {
	Scheme     string  `json:"scheme" yaml:"scheme"`
	LaunchMode string  `json:"launch_mode,omitempty" yaml:"launch_mode,omitempty"`
	GameInfo   string  `json:"game_info,omitempty" yaml:"game_info,omitempty"`
	LaunchTime string  `json:"launch_time,omitempty" yaml:"launch_time,omitempty"`
	BaseURL    string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Params     []Param `json:"params,omitempty" yaml:"params,omitempty"`

	// State and Code are only used by the studio sign-in callback.
	State string `json:"state,omitempty" yaml:"state,omitempty"`
	Code  string `json:"code,omitempty" yaml:"code,omitempty"`
}

// Param returns the value of the first extra token named key.
func (r Request) Param(key string) (string, bool) {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Codec holds the schemes it recognizes.
type Codec struct {
	PlayerScheme     string
	StudioScheme     string
	StudioAuthScheme string
	PlaceLauncherURL string
}

// DefaultCodec returns a Codec with the default schemes.
func DefaultCodec() Codec {
	return Codec{
		PlayerScheme:     DefaultPlayerScheme,
		StudioScheme:     DefaultStudioScheme,
		StudioAuthScheme: DefaultStudioAuthScheme,
		PlaceLauncherURL: DefaultPlaceLauncherURL,
	}
}

// encodeComponent percent-encodes s the way a token value is expected:
// spaces as %20 so that '+' stays unambiguous as the token separator.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Encode renders r as a launch URL.
func (c Codec) Encode(r Request) (string, error) {
	if r.Scheme == "" {
		return "", fmt.Errorf("encode launch url: scheme is required")
	}

	if r.Scheme == c.StudioAuthScheme && r.State != "" && r.Code != "" {
		return r.Scheme + "://?state=" + url.QueryEscape(r.State) + "&code=" + url.QueryEscape(r.Code), nil
	}

	tokens := []string{formatVersion}
	for _, kv := range [][2]string{
		{"launchmode", r.LaunchMode},
		{"gameinfo", r.GameInfo},
		{"launchtime", r.LaunchTime},
		{"baseUrl", r.BaseURL},
	} {
		if kv[1] != "" {
			tokens = append(tokens, kv[0]+":"+kv[1])
		}
	}
	for _, p := range r.Params {
		switch {
		case p.Key == "":
			return "", fmt.Errorf("encode launch url: param with empty key")
		case p.Key == p.Value:
			tokens = append(tokens, p.Key)
		default:
			tokens = append(tokens, p.Key+":"+encodeComponent(p.Value))
		}
	}

	return r.Scheme + ":" + strings.Join(tokens, "+"), nil
}

// Decode parses a launch URL produced by Encode (or by the website).
// Returns ErrNotLaunchURL when raw uses none of the codec's schemes.
func (c Codec) Decode(raw string) (Request, error) {
	if strings.HasPrefix(raw, c.StudioAuthScheme+":") {
		u, err := url.Parse(raw)
		if err != nil {
			return Request{}, fmt.Errorf("decode studio auth url: %w", err)
		}
		q := u.Query()
		return Request{Scheme: c.StudioAuthScheme, State: q.Get("state"), Code: q.Get("code")}, nil
	}

	var r Request
	switch {
	case strings.HasPrefix(raw, c.PlayerScheme+":"+formatVersion):
		r.Scheme = c.PlayerScheme
	case strings.HasPrefix(raw, c.StudioScheme+":"+formatVersion):
		r.Scheme = c.StudioScheme
	default:
		return Request{}, ErrNotLaunchURL
	}

	tokens := strings.Split(raw, "+")
	for _, token := range tokens[1:] {
		key, value, hasValue := strings.Cut(token, ":")
		if !hasValue {
			if key != "" {
				r.Params = append(r.Params, Param{Key: key, Value: key})
			}
			continue
		}
		if value == "" {
			continue
		}

		switch strings.ToLower(key) {
		case "launchmode":
			r.LaunchMode = value
		case "gameinfo":
			r.GameInfo = value
		case "launchtime":
			r.LaunchTime = value
		case "baseurl":
			r.BaseURL = value
		default:
			decoded, err := url.PathUnescape(value)
			if err != nil {
				return Request{}, fmt.Errorf("decode launch token %q: %w", key, err)
			}
			r.Params = append(r.Params, Param{Key: key, Value: decoded})
		}
	}

	return r, nil
}
