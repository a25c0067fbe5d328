package catalog

import "gopkg.in/yaml.v2"

// Fixture is a minimal, test-oriented YAML shape for building a Schema in
// example code and unit tests. It intentionally covers only the common
// case (single-column ids, no polymorphism/denormalization) — a full
// production catalog loader, with view registration, polymorphism, and
// denormalization markers, is a separate external concern. Keeping a small
// yaml-tagged fixture here lets the catalog structs carry real `yaml` tags
// and lets tests build schemas from inline YAML instead of verbose struct
// literals, without pretending to be that loader.
type Fixture struct {
	Version uint32                   `yaml:"version"`
	Nodes   map[string]NodeFixture   `yaml:"nodes"`
	Rels    []RelationshipFixture    `yaml:"relationships"`
}

type NodeFixture struct {
	Table      string            `yaml:"table"`
	ID         string            `yaml:"id"`
	Properties map[string]string `yaml:"properties"`
}

type RelationshipFixture struct {
	Type       string            `yaml:"type"`
	Table      string            `yaml:"table"`
	From       string            `yaml:"from"`
	To         string            `yaml:"to"`
	FromID     string            `yaml:"from_id"`
	ToID       string            `yaml:"to_id"`
	Properties map[string]string `yaml:"properties"`
}

// ParseFixtureYAML decodes a Fixture document and builds a Schema from it.
func ParseFixtureYAML(data []byte) (*Schema, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return BuildFromFixture(&f)
}

// BuildFromFixture constructs a Schema from an already-decoded Fixture.
func BuildFromFixture(f *Fixture) (*Schema, error) {
	s := NewSchema(f.Version)
	for label, n := range f.Nodes {
		ns := &NodeSchema{
			Label:      label,
			Table:      n.Table,
			IDColumns:  []string{n.ID},
			Properties: n.Properties,
		}
		if err := s.AddNode(ns); err != nil {
			return nil, err
		}
	}
	for _, r := range f.Rels {
		rs := &RelationshipSchema{
			Type:          r.Type,
			Table:         r.Table,
			FromLabel:     r.From,
			ToLabel:       r.To,
			FromIDColumns: []string{r.FromID},
			ToIDColumns:   []string{r.ToID},
			Properties:    r.Properties,
		}
		if err := s.AddRelationship(rs); err != nil {
			return nil, err
		}
	}
	return s, nil
}
