package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/deeplink/internal/route"
)

// Domain prefixes keep identifiers of different record kinds disjoint.
// The version suffix leaves room to change the algorithm.
const (
	DomainLink   = "deeplink/link/v1"
	DomainParams = "deeplink/params/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of v's canonical encoding under domain.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return hashWithDomain(domain, data), nil
}

// LinkID identifies a URL together with the resolution recorded for it.
// An empty name records that url resolves to nothing.
func LinkID(url string, name route.Name, params route.Params) (string, error) {
	if params == nil {
		params = route.Params{}
	}
	id, err := Hash(DomainLink, map[string]any{
		"url":    url,
		"route":  string(name),
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("LinkID: %w", err)
	}
	return id, nil
}

// ParamsHash identifies a route's parameter set independent of the URL it
// was parsed from, so equivalent protocol and website links share it.
func ParamsHash(name route.Name, params route.Params) (string, error) {
	if params == nil {
		params = route.Params{}
	}
	h, err := Hash(DomainParams, map[string]any{
		"route":  string(name),
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("ParamsHash: %w", err)
	}
	return h, nil
}
