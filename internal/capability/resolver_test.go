package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmptySetStaysEmpty(t *testing.T) {
	resolved := Resolve(NewSet())
	assert.Empty(t, resolved)
}

func TestResolveAddsBaseline(t *testing.T) {
	resolved := Resolve(NewSet("manage_options"))
	assert.True(t, resolved.Has(Baseline))
	assert.True(t, resolved.Has("manage_options"))
}

func TestResolveExpandsDependencies(t *testing.T) {
	resolved := Resolve(NewSet("publish_posts"))
	require.True(t, resolved.Has("publish_posts"))
	assert.True(t, resolved.Has("edit_posts"), "publish_posts requires edit_posts")
	assert.True(t, resolved.Has("read"))
	assert.Len(t, resolved, 3)
}

func TestResolveReplacementScenario(t *testing.T) {
	// A role holding {read, edit_posts} updated with a request for
	// edit_pages alone resolves to {read, edit_pages}; the update replaces
	// wholesale, it does not merge.
	resolved := Resolve(NewSet("edit_pages"))
	assert.True(t, resolved.Equal(NewSet("read", "edit_pages")))
}

func TestResolveIdempotent(t *testing.T) {
	inputs := []Set{
		NewSet("publish_posts", "moderate_comments"),
		NewSet("upload_files"),
		NewSet("unknown_capability"),
		NewSet("edit_products", "publish_products", "delete_products"),
	}
	for _, in := range inputs {
		once := Resolve(in)
		twice := Resolve(once)
		assert.True(t, once.Equal(twice), "resolve must be idempotent for %v", in.Sorted())
	}
}

func TestResolvePassesUnknownCapabilitiesThrough(t *testing.T) {
	resolved := Resolve(NewSet("totally_custom_cap"))
	assert.True(t, resolved.Has("totally_custom_cap"))
	assert.True(t, resolved.Has(Baseline))
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	in := NewSet("publish_posts")
	_ = Resolve(in)
	assert.Len(t, in, 1)
}

func TestRequiresReturnsCopy(t *testing.T) {
	deps := Requires("publish_posts")
	require.NotEmpty(t, deps)
	deps[0] = "mutated"
	assert.Equal(t, Baseline, Requires("publish_posts")[0])
}
