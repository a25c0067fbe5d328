package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeElementIDRoundTrip(t *testing.T) {
	cases := []struct {
		label string
		ids   []string
	}{
		{"User", []string{"123"}},
		{"User", []string{"alice@example.com"}},
		{"Post", []string{"550e8400-e29b-41d4-a716-446655440000"}},
		{"Account", []string{"tenant_1", "456"}},
		{"Event", []string{"2024", "01", "15"}},
	}
	for _, c := range cases {
		eid := GenerateNodeElementID(c.label, c.ids)
		label, ids, err := ParseNodeElementID(eid)
		require.NoError(t, err)
		require.Equal(t, c.label, label)
		require.Equal(t, c.ids, ids)
	}
}

func TestNodeElementIDErrors(t *testing.T) {
	_, _, err := ParseNodeElementID("User123")
	require.Error(t, err)
	require.True(t, ErrInvalidFormat.Is(err))

	_, _, err = ParseNodeElementID(":123")
	require.True(t, ErrMissingLabel.Is(err))

	_, _, err = ParseNodeElementID("User:")
	require.True(t, ErrMissingID.Is(err))
}

func TestNodeElementIDColonInsideValue(t *testing.T) {
	eid := GenerateNodeElementID("Post", []string{"post:123:456"})
	require.Equal(t, "Post:post:123:456", eid)
	label, ids, err := ParseNodeElementID(eid)
	require.NoError(t, err)
	require.Equal(t, "Post", label)
	require.Equal(t, []string{"post:123:456"}, ids)
}

func TestRelationshipElementIDRoundTrip(t *testing.T) {
	cases := []struct{ relType, from, to string }{
		{"FOLLOWS", "123", "456"},
		{"AUTHORED", "alice@example.com", "post-uuid-123"},
		{"BELONGS_TO", "tenant_1|user_456", "tenant_1|org_789"},
	}
	for _, c := range cases {
		eid := GenerateRelationshipElementID(c.relType, c.from, c.to)
		relType, from, to, err := ParseRelationshipElementID(eid)
		require.NoError(t, err)
		require.Equal(t, c.relType, relType)
		require.Equal(t, c.from, from)
		require.Equal(t, c.to, to)
	}
}

func TestRelationshipElementIDErrors(t *testing.T) {
	_, _, _, err := ParseRelationshipElementID("FOLLOWS123->456")
	require.True(t, ErrInvalidFormat.Is(err))

	_, _, _, err = ParseRelationshipElementID(":123->456")
	require.True(t, ErrMissingRelType.Is(err))

	_, _, _, err = ParseRelationshipElementID("FOLLOWS:123456")
	require.True(t, ErrInvalidFormat.Is(err))

	_, _, _, err = ParseRelationshipElementID("FOLLOWS:->456")
	require.True(t, ErrMissingFromID.Is(err))

	_, _, _, err = ParseRelationshipElementID("FOLLOWS:123->")
	require.True(t, ErrMissingToID.Is(err))
}
