package gazetteer

import (
	"embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var tables embed.FS

// Table is the declarative form of a gazetteer, as stored in YAML.
// Region order is preserved and is significant for containment matching.
type Table struct {
	Name    string            `yaml:"name"`
	Regions []RegionEntry     `yaml:"regions"`
	Aliases map[string]string `yaml:"aliases"`
	States  []StateEntry      `yaml:"states"`
}

// RegionEntry declares one canonical region and the postal codes (5 digits)
// or postal prefixes (3 digits) that resolve to it.
type RegionEntry struct {
	Key    string   `yaml:"key"`
	Name   string   `yaml:"name"`
	Lat    float64  `yaml:"lat"`
	Lon    float64  `yaml:"lon"`
	Postal []string `yaml:"postal"`
}

// StateEntry declares one valid state or territory code.
type StateEntry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Load decodes a YAML table and validates it.
func Load(r io.Reader) (*Gazetteer, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode gazetteer table: %w", err)
	}
	return New(t)
}

// LoadFile loads a table from disk.
func LoadFile(path string) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer table: %w", err)
	}
	defer f.Close()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// JapanPrefectures loads the embedded table of the 47 prefectures, located at
// their capital cities, with the roster's known alternate spellings.
func JapanPrefectures() (*Gazetteer, error) {
	return loadEmbedded("data/jp_prefectures.yaml")
}

// USPostal loads the embedded US table: the state/territory enumeration plus
// ZIP codes and ZIP prefixes mapped to named areas.
func USPostal() (*Gazetteer, error) {
	return loadEmbedded("data/us_postal.yaml")
}

func loadEmbedded(name string) (*Gazetteer, error) {
	f, err := tables.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open embedded table: %w", err)
	}
	defer f.Close()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("embedded %s: %w", name, err)
	}
	return g, nil
}
