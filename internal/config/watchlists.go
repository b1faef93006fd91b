package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/jobthai-scout/internal/candidate"
)

// Watchlist names produced by LoadWatchlists. Grouped files prefix the
// group key, e.g. "tier1/skincare".
const (
	Tier1       = "tier1"
	Competitors = "competitors"
	Clients     = "clients"
)

// LoadWatchlists reads the company lists. The tier1 and clients files map a
// group name to a company or a list of companies; the competitors file holds a
// "competitors" list. Missing files and empty groups are skipped.
func LoadWatchlists(files WatchlistFiles) ([]candidate.Watchlist, error) {
	var lists []candidate.Watchlist

	tier1, err := readGroups(files.Tier1)
	if err != nil {
		return nil, err
	}
	lists = append(lists, groupLists(Tier1, tier1)...)

	competitors, err := readCompetitors(files.Competitors)
	if err != nil {
		return nil, err
	}
	if len(competitors) > 0 {
		lists = append(lists, candidate.Watchlist{Name: Competitors, Companies: competitors})
	}

	clients, err := readGroups(files.Clients)
	if err != nil {
		return nil, err
	}
	lists = append(lists, groupLists(Clients, clients)...)

	return lists, nil
}

func readGroups(path string) (map[string][]string, error) {
	var raw map[string]any
	ok, err := readYAML(path, &raw)
	if err != nil || !ok {
		return nil, err
	}

	groups := make(map[string][]string, len(raw))
	for key, value := range raw {
		if names := toStrings(value); len(names) > 0 {
			groups[key] = names
		}
	}
	return groups, nil
}

func readCompetitors(path string) ([]string, error) {
	var raw struct {
		Competitors []any `yaml:"competitors"`
	}
	ok, err := readYAML(path, &raw)
	if err != nil || !ok {
		return nil, err
	}
	return toStrings(raw.Competitors), nil
}

func readYAML(path string, out any) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parsing %q: %w", path, err)
	}
	return true, nil
}

func groupLists(prefix string, groups map[string][]string) []candidate.Watchlist {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lists := make([]candidate.Watchlist, 0, len(keys))
	for _, k := range keys {
		lists = append(lists, candidate.Watchlist{Name: prefix + "/" + k, Companies: groups[k]})
	}
	return lists
}

// toStrings flattens a scalar or a list into trimmed non-empty strings.
func toStrings(value any) []string {
	var items []any
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		items = v
	default:
		items = []any{v}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
