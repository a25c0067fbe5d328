package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaRegistrationAndLookup(t *testing.T) {
	s := NewSchema(1)

	require.NoError(t, s.AddNode(&NodeSchema{
		Label:      "User",
		Table:      "users",
		IDColumns:  []string{"user_id"},
		IDTypes:    []IDColumnType{IDTypeUInt64},
		Properties: map[string]string{"name": "full_name", "age": "age"},
	}))

	require.NoError(t, s.AddRelationship(&RelationshipSchema{
		Type:          "FOLLOWS",
		Table:         "user_follows",
		FromLabel:     "User",
		ToLabel:       "User",
		FromIDColumns: []string{"follower_id"},
		ToIDColumns:   []string{"followed_id"},
	}))

	n, err := s.GetNodeSchema("User")
	require.NoError(t, err)
	require.Equal(t, "users", n.Table)

	_, err = s.GetNodeSchema("Missing")
	require.Error(t, err)
	require.True(t, ErrNodeLabelNotFound.Is(err))

	r, err := s.GetRelSchema(NewRelKey("FOLLOWS", "User", "User"))
	require.NoError(t, err)
	require.Equal(t, "user_follows", r.Table)

	require.True(t, ErrRelKeyNotFound.Is(mustErr(s.GetRelSchema(NewRelKey("FOLLOWS", "User", "Post")))))
}

func mustErr(_ *RelationshipSchema, err error) error { return err }

func TestDuplicateLabelRejected(t *testing.T) {
	s := NewSchema(1)
	ns := &NodeSchema{Label: "User", Table: "users", IDColumns: []string{"id"}}
	require.NoError(t, s.AddNode(ns))
	err := s.AddNode(ns)
	require.Error(t, err)
	require.True(t, ErrDuplicateLabel.Is(err))
}

func TestInferEndpointLabelUnique(t *testing.T) {
	s := NewSchema(1)
	require.NoError(t, s.AddRelationship(&RelationshipSchema{
		Type: "AUTHORED", FromLabel: "User", ToLabel: "Post",
		FromIDColumns: []string{"id"}, ToIDColumns: []string{"id"},
	}))

	label, ok := s.InferEndpointLabel("AUTHORED", "User", true)
	require.True(t, ok)
	require.Equal(t, "Post", label)

	label, ok = s.InferEndpointLabel("AUTHORED", "Post", false)
	require.True(t, ok)
	require.Equal(t, "User", label)
}

func TestInferEndpointLabelAmbiguous(t *testing.T) {
	s := NewSchema(1)
	require.NoError(t, s.AddRelationship(&RelationshipSchema{
		Type: "LIKES", FromLabel: "User", ToLabel: "Post",
		FromIDColumns: []string{"id"}, ToIDColumns: []string{"id"},
	}))
	require.NoError(t, s.AddRelationship(&RelationshipSchema{
		Type: "LIKES", FromLabel: "User", ToLabel: "Comment",
		FromIDColumns: []string{"id"}, ToIDColumns: []string{"id"},
	}))

	_, ok := s.InferEndpointLabel("LIKES", "User", true)
	require.False(t, ok)
}

func TestParseFixtureYAML(t *testing.T) {
	doc := []byte(`
version: 1
nodes:
  User:
    table: users
    id: user_id
    properties:
      name: full_name
relationships:
  - type: FOLLOWS
    table: user_follows
    from: User
    to: User
    from_id: follower_id
    to_id: followed_id
`)
	s, err := ParseFixtureYAML(doc)
	require.NoError(t, err)
	n, err := s.GetNodeSchema("User")
	require.NoError(t, err)
	require.Equal(t, "users", n.Table)
}
