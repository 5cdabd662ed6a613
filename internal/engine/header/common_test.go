package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanComment(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"line", "// Returns the value.", "Returns the value."},
		{"block", "/* Frees ctx. */", "Frees ctx."},
		{"trailing", "/**< Green. */", "Green."},
		{"first paragraph", "/**\n * Creates a context.\n *\n * More detail.\n */", "Creates a context."},
		{"multi line", "/**\n * Creates a\n * context.\n */", "Creates a context."},
		{"brief", "/** @brief Opens a file.\n * @param path the path */", "Opens a file."},
		{"stops at directive", "/** Opens.\n * @return 0 on success */", "Opens."},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanComment(tt.raw))
		})
	}
}

func TestAnonymousNames(t *testing.T) {
	assert.Equal(t, "(anonymous at api.h:3:9)", AnonymousName("api.h", 3, 9))
	assert.Equal(t, "(anonymous at <input>:1:1)", AnonymousName("", 1, 1))

	assert.True(t, IsAnonymousName(""))
	assert.True(t, IsAnonymousName("struct (unnamed at api.h:3:9)"))
	assert.True(t, IsAnonymousName(AnonymousName("api.h", 3, 9)))
	assert.False(t, IsAnonymousName("Point"))
}

func TestHeaderFilter(t *testing.T) {
	h := &Header{
		Name:      "api",
		Functions: []Function{{Name: "api_open"}, {Name: "internal_tick"}},
		Structs:   []Struct{{Name: "internal_state"}, {Name: AnonymousName("api.h", 4, 9)}},
		Typedefs:  []Typedef{{Name: "api_handle"}},
	}
	got := h.Filter(func(name string) bool { return name != "internal_tick" && name != "internal_state" })

	assert.Len(t, got.Functions, 1)
	assert.Len(t, got.Structs, 1, "anonymous bodies survive filtering")
	assert.Len(t, got.Typedefs, 1)
	assert.Equal(t, 5, h.DeclarationCount())
	assert.Equal(t, 3, got.DeclarationCount())
}
