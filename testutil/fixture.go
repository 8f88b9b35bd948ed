package testutil

import (
	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/encoder"
	"github.com/hupe1980/recgo/model"
)

// FixtureTags is the tag vocabulary of the fixture catalog, in column order.
// Tag vectors are the standard basis of an 8-dimensional space.
var FixtureTags = []string{"action", "shooter", "competitive", "casual", "horror", "puzzle", "rpg", "strategy"}

// FixtureEncoderDimension is the width of FixtureEncoder embeddings.
const FixtureEncoderDimension = 64

// FixtureItem is one row of the fixture catalog.
type FixtureItem struct {
	ID          model.ItemID
	Title       string
	Tags        []string
	Price       float64
	Platforms   []string
	Multiplayer bool
	Released    string
	Weight      float32
	AgeRating   int
}

// FixtureItems is the 20-item fixture catalog. Items 2000 and 2001 are close
// to 730 but priced above 60.
var FixtureItems = []FixtureItem{
	{730, "Counter-Strike 2", []string{"action", "shooter", "competitive"}, 0, []string{"windows", "linux"}, true, "2023-09-27", 0.95, 16},
	{10, "Counter-Strike", []string{"action", "shooter", "competitive"}, 9.99, []string{"windows", "mac", "linux"}, true, "2000-11-01", 0.60, 16},
	{240, "Counter-Strike: Source", []string{"action", "shooter"}, 19.99, []string{"windows"}, true, "2004-11-01", 0.50, 16},
	{440, "Team Fortress 2", []string{"action", "shooter", "casual"}, 0, []string{"windows"}, true, "2007-10-10", 0.80, 12},
	{550, "Left 4 Dead 2", []string{"action", "shooter", "horror"}, 9.99, []string{"windows", "mac", "linux"}, true, "2009-11-16", 0.70, 18},
	{578080, "PUBG: Battlegrounds", []string{"action", "shooter", "competitive"}, 0, []string{"windows"}, true, "2017-12-21", 0.90, 16},
	{1172470, "Apex Legends", []string{"action", "shooter", "competitive"}, 0, []string{"windows"}, true, "2020-11-04", 0.85, 16},
	{2000, "Premium Shooter Deluxe", []string{"action", "shooter", "competitive"}, 69.99, []string{"windows"}, true, "2024-03-01", 0.40, 18},
	{2001, "Tactical Ops Gold", []string{"action", "shooter", "strategy"}, 79.99, []string{"windows"}, false, "2022-05-05", 0.30, 16},
	{620, "Portal 2", []string{"puzzle", "casual"}, 9.99, []string{"windows", "mac", "linux"}, true, "2011-04-18", 0.75, 12},
	{400, "Portal", []string{"puzzle"}, 9.99, []string{"windows", "mac", "linux"}, false, "2007-10-10", 0.60, 12},
	{1245620, "Elden Ring", []string{"action", "rpg"}, 59.99, []string{"windows"}, true, "2022-02-25", 0.90, 16},
	{292030, "The Witcher 3", []string{"rpg"}, 39.99, []string{"windows"}, false, "2015-05-18", 0.85, 18},
	{418370, "Resident Evil 7", []string{"horror", "action"}, 19.99, []string{"windows"}, false, "2017-01-24", 0.60, 18},
	{381210, "Dead by Daylight", []string{"horror", "competitive"}, 19.99, []string{"windows"}, true, "2016-06-14", 0.70, 18},
	{739630, "Phasmophobia", []string{"horror", "casual"}, 13.99, []string{"windows"}, true, "2020-09-18", 0.65, 16},
	{282140, "SOMA", []string{"horror", "puzzle"}, 28.99, []string{"windows", "mac", "linux"}, false, "2015-09-22", 0.40, 16},
	{413150, "Stardew Valley", []string{"casual", "rpg"}, 14.99, []string{"windows", "mac", "linux"}, true, "2016-02-26", 0.90, 0},
	{289070, "Sid Meier's Civilization VI", []string{"strategy"}, 59.99, []string{"windows", "mac", "linux"}, true, "2016-10-21", 0.80, 12},
	{1794680, "Vampire Survivors", []string{"action", "casual", "rpg"}, 4.99, []string{"windows", "mac"}, false, "2022-10-20", 0.70, 12},
}

// FixtureEncoder returns the encoder the fixture alignment matrix is built for.
// A single tag name encodes to a vector that projects onto that tag's vector.
func FixtureEncoder() *encoder.Hashing {
	return encoder.NewHashing(FixtureEncoderDimension)
}

// FixtureParams returns the raw parameters of the fixture catalog.
//
// Item vectors are the sum of their tag basis vectors plus small seeded noise,
// so items sharing tags are close.
func FixtureParams() artifact.Params {
	const dim = 8

	tagIdx := make(map[string]int, len(FixtureTags))
	tagVecs := make([][]float32, len(FixtureTags))
	for i, t := range FixtureTags {
		tagIdx[t] = i
		v := make([]float32, dim)
		v[i] = 1
		tagVecs[i] = v
	}

	noise := NewRNG(7).GaussianVectors(len(FixtureItems), dim)

	p := artifact.Params{
		ItemIDs:     make([]model.ItemID, len(FixtureItems)),
		ItemVectors: make([][]float32, len(FixtureItems)),
		TagNames:    FixtureTags,
		TagVectors:  tagVecs,
		Weights:     make([]float32, len(FixtureItems)),
		Items:       make(map[model.ItemID]*artifact.Item, len(FixtureItems)),
	}

	rowTags := make([][]uint32, len(FixtureItems))
	for r, it := range FixtureItems {
		vec := make([]float32, dim)
		for _, t := range it.Tags {
			vec[tagIdx[t]] = 1
			rowTags[r] = append(rowTags[r], uint32(tagIdx[t]))
		}
		distance.AddScaled(vec, 0.05, noise[r])

		p.ItemIDs[r] = it.ID
		p.ItemVectors[r] = vec
		p.Weights[r] = it.Weight

		price, mp, age := it.Price, it.Multiplayer, it.AgeRating
		p.Items[it.ID] = &artifact.Item{
			Title:       it.Title,
			Price:       &price,
			Platforms:   it.Platforms,
			Multiplayer: &mp,
			ReleaseDate: it.Released,
			AgeRating:   &age,
		}
	}

	inc, err := artifact.NewIncidence(len(FixtureItems), len(FixtureTags), rowTags)
	if err != nil {
		panic(err)
	}
	p.Incidence = inc

	enc := FixtureEncoder()
	align := make([][]float32, FixtureEncoderDimension)
	for i := range align {
		align[i] = make([]float32, dim)
	}
	for i, t := range FixtureTags {
		b, s := enc.Bucket(t)
		distance.AddScaled(align[b], s, tagVecs[i])
	}
	p.Alignment = align

	return p
}

// FixtureContext returns the 20-item fixture catalog as a static context.
func FixtureContext() *artifact.Context {
	sc, err := artifact.New(FixtureParams())
	if err != nil {
		panic(err)
	}
	return sc
}
