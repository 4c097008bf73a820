package store

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is a YAML list of URLs to record:
//
//	urls:
//	  - roblox://navigation/home
//	  - https://www.roblox.com/games/1818
type Seed struct {
	URLs []string `yaml:"urls"`
}

// ReadSeed decodes a seed file. Unknown keys are rejected. Blank entries are
// dropped and duplicates keep their first position.
func ReadSeed(r io.Reader) ([]string, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read seed: %w", err)
	}

	seen := make(map[string]bool, len(seed.URLs))
	urls := make([]string, 0, len(seed.URLs))
	for _, u := range seed.URLs {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls, nil
}
