package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/connterm/pkg/game"
	"github.com/qnkhuat/connterm/pkg/gui"
)

func TestParseRole(t *testing.T) {
	role, err := parseRole(true, "")
	require.NoError(t, err)
	assert.Equal(t, game.RoleHost, role)

	role, err = parseRole(false, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, game.RolePeer, role)

	_, err = parseRole(true, "10.0.0.2")
	assert.Error(t, err)
	_, err = parseRole(false, "")
	assert.Error(t, err)
}

func TestLoadTheme(t *testing.T) {
	theme, err := loadTheme("mono", "")
	require.NoError(t, err)
	assert.Equal(t, gui.ThemeMono, theme)

	path := filepath.Join(t.TempDir(), "themes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"night","playerA":"#ff8800"}]`), 0644))

	theme, err = loadTheme("night", path)
	require.NoError(t, err)
	assert.Equal(t, int32(0xff8800), theme.PlayerA.Hex())

	_, err = loadTheme("night", "")
	assert.ErrorIs(t, err, gui.ErrNoTheme)
	_, err = loadTheme("basic", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
