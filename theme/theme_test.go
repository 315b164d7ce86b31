package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpl = `GIMP Palette
Name: Mono
Columns: 2
# comment
  0   0   0	Black
255 255 255	White
300 0 0 out of range
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	require.NoError(t, err)
	assert.Equal(t, "Mono", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)

	_, err = ParseGPL(strings.NewReader("GIMP Palette\n"))
	assert.Error(t, err)
}

func TestLookupInterpolates(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{100, 50, 25}, p.Lookup(0.5))
	assert.Equal(t, RGB{200, 100, 50}, p.Lookup(2))

	single := &Palette{Colors: []RGB{{1, 2, 3}}}
	assert.Equal(t, RGB{1, 2, 3}, single.Lookup(0.7))
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
	assert.Equal(t, "practice", p.Name)

	path := filepath.Join(t.TempDir(), "mono.gpl")
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))
	p, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "Mono", p.Name)
}

func TestThemeRoles(t *testing.T) {
	th := New(&Palette{Colors: []RGB{{0, 0, 0}, {0xff, 0x80, 0x00}}})
	assert.Equal(t, lipgloss.Color("#000000"), th.Color(RoleBG))
	assert.Equal(t, lipgloss.Color("#ff8000"), th.Color(RoleSuccess))
	assert.Equal(t, lipgloss.Color("#7f4000"), th.Shade(0.5))
	assert.Equal(t, '●', th.Symbols.Found)

	assert.NotNil(t, New(nil).Palette)
}
