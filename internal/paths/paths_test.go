package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPathEscapesComponents(t *testing.T) {
	assert.Equal(t,
		FS(".ginjarator/dependencies/foo%2Fbar.json"),
		InternalPath("dependencies", "foo/bar.json"),
	)
}

func TestInternalPathEscapesSpaces(t *testing.T) {
	assert.Equal(t,
		FS(".ginjarator/templates/a%20b.json"),
		InternalPath("templates", "a b.json"),
	)
}

func TestDerivedTemplatePaths(t *testing.T) {
	tests := []struct {
		name string
		got  FS
		want FS
	}{
		{"state", TemplateState("foo"), ".ginjarator/templates/foo.json"},
		{"depfile", TemplateDepfile("foo"), ".ginjarator/templates/foo.d"},
		{"dyndep", TemplateDyndep("foo"), ".ginjarator/templates/foo.dd"},
		{"render stamp", TemplateRenderStamp("foo"), ".ginjarator/templates/foo.render-stamp"},
		{"ninja output", NinjaTemplateOutput("foo"), ".ginjarator/ninja_templates/foo.ninja"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestIsRelativeTo(t *testing.T) {
	tests := []struct {
		path  FS
		other FS
		want  bool
	}{
		{"src/foo", "src", true},
		{"src", "src", true},
		{"src2/foo", "src", false},
		{"src", "src/foo", false},
		{"build/out.txt", "build", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.path.IsRelativeTo(tt.other),
			"%q relative to %q", tt.path, tt.other)
	}
}

func TestNewCleansPaths(t *testing.T) {
	assert.Equal(t, FS("src/foo"), New("src//foo"))
	assert.Equal(t, FS("src/foo"), New("./src/foo"))
	assert.Equal(t, FS("src/foo"), New(`src\foo`))
}
