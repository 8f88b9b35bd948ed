package artifact

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/hupe1980/recgo/model"
)

// Item holds the catalog attributes of one item. Nil pointers and empty
// slices mean the attribute is unknown.
type Item struct {
	Title        string   `json:"title,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	Multiplayer  *bool    `json:"multiplayer,omitempty"`
	Singleplayer *bool    `json:"singleplayer,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	AgeRating    *int     `json:"age_rating,omitempty"`

	released time.Time
}

var releaseLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"Jan 2, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
}

// Released returns the parsed release date and whether it is known.
func (it *Item) Released() (time.Time, bool) {
	if it == nil || it.released.IsZero() {
		return time.Time{}, false
	}
	return it.released, true
}

// HasPlatform reports whether the platform list contains p (case-insensitive).
func (it *Item) HasPlatform(p string) bool {
	return containsFold(it.Platforms, p)
}

// HasLanguage reports whether the language list contains l (case-insensitive).
func (it *Item) HasLanguage(l string) bool {
	return containsFold(it.Languages, l)
}

func (it *Item) prepare() {
	s := strings.TrimSpace(it.ReleaseDate)
	if s == "" {
		return
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			it.released = t.UTC()
			return
		}
	}
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	return slices.ContainsFunc(list, func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), s)
	})
}

// parseItems decodes items.json, an object keyed by item id.
func parseItems(data []byte) (map[model.ItemID]*Item, error) {
	var raw map[string]*Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[model.ItemID]*Item, len(raw))
	for k, it := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item key %q: %w", k, err)
		}
		if it == nil {
			continue
		}
		it.prepare()
		out[model.ItemID(id)] = it
	}
	return out, nil
}

// indexMaps is the content of index_maps.json.
type indexMaps struct {
	AppIDToRow map[string]int `json:"appid2row"`
	TagToIdx   map[string]int `json:"tag2idx"`
}

// parseIndexMaps decodes index_maps.json into row-ordered ids and
// column-ordered tag names.
func parseIndexMaps(data []byte) ([]model.ItemID, []string, error) {
	var raw indexMaps
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}
	if len(raw.AppIDToRow) == 0 {
		return nil, nil, fmt.Errorf("appid2row is empty")
	}

	ids := make([]model.ItemID, len(raw.AppIDToRow))
	filled := make([]bool, len(ids))
	for k, row := range raw.AppIDToRow {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("appid2row key %q: %w", k, err)
		}
		if row < 0 || row >= len(ids) || filled[row] {
			return nil, nil, fmt.Errorf("appid2row: row %d of item %d is out of range or duplicated", row, id)
		}
		ids[row] = model.ItemID(id)
		filled[row] = true
	}

	tags := make([]string, len(raw.TagToIdx))
	seen := make([]bool, len(tags))
	for name, idx := range raw.TagToIdx {
		if idx < 0 || idx >= len(tags) || seen[idx] {
			return nil, nil, fmt.Errorf("tag2idx: column %d of tag %q is out of range or duplicated", idx, name)
		}
		tags[idx] = name
		seen[idx] = true
	}
	return ids, tags, nil
}
