package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasTag(t *testing.T) {
	tests := []struct {
		text string
		tag  string
		want bool
	}{
		{"call mum #todo", "#todo", true},
		{"#todo at start", "#todo", true},
		{"(#todo)", "#todo", true},
		{"ends with #todo.", "#todo", true},
		{"line one\n#todo", "#todo", true},
		{"#todos are different", "#todo", false},
		{"no#todo glued", "#todo", false},
		{"nothing here", "#todo", false},
		{"anything", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasTag(tt.text, tt.tag), "HasTag(%q, %q)", tt.text, tt.tag)
	}
}

func TestRemoveTag(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"trailing", "finish report #todo", "finish report"},
		{"leading", "#todo finish report", "finish report"},
		{"middle", "finish #todo report", "finish report"},
		{"adjacent", "a #todo #todo b", "a b"},
		{"punctuation kept", "done (#todo).", "done ()."},
		{"other tags kept", "x #todos #todo", "x #todos"},
		{"multiline", "# Title\n\nbody #todo\nmore", "# Title\n\nbody\nmore"},
		{"absent", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveTag(tt.text, "#todo"))
		})
	}
}

func TestStripTag(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, map[string]string{
		"task.md":  "ship it #todo\n",
		"clean.md": "nothing to do\n",
	})

	changed, err := v.StripTag(ctx, "task.md", "#todo")
	require.NoError(t, err)
	assert.True(t, changed)
	text, err := v.Read(ctx, "task.md")
	require.NoError(t, err)
	assert.Equal(t, "ship it\n", text)

	changed, err = v.StripTag(ctx, "clean.md", "#todo")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = v.StripTag(ctx, "missing.md", "#todo")
	assert.Error(t, err)
}
