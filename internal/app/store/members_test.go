package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendMember(t *testing.T) {
	members, changed := appendMember(nil, "u1")
	assert.True(t, changed)
	assert.Equal(t, []string{"u1"}, members)

	members, changed = appendMember(members, "u2")
	assert.True(t, changed)
	assert.Equal(t, []string{"u1", "u2"}, members)

	// Re-adding an existing member changes nothing.
	members, changed = appendMember(members, "u1")
	assert.False(t, changed)
	assert.Equal(t, []string{"u1", "u2"}, members)
}

func TestRemoveMember(t *testing.T) {
	members := []string{"u1", "u2", "u3"}

	members, changed := removeMember(members, "u2")
	assert.True(t, changed)
	assert.Equal(t, []string{"u1", "u3"}, members)

	// Removing an absent member changes nothing.
	members, changed = removeMember(members, "u2")
	assert.False(t, changed)
	assert.Equal(t, []string{"u1", "u3"}, members)

	members, changed = removeMember(members, "u1")
	assert.True(t, changed)
	members, changed = removeMember(members, "u3")
	assert.True(t, changed)
	assert.Empty(t, members)
}
