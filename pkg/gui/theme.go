package gui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
)

// Stick to the xterm 256 color palette so themes look the same over ssh
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

var ErrNoTheme = errors.New("theme: no theme found")

// Theme colors the board and the status line
type Theme struct {
	Name     string      `json:"name"`
	Frame    tcell.Color `json:"frame"`
	Empty    tcell.Color `json:"empty"`
	PlayerA  tcell.Color `json:"playerA"`
	PlayerB  tcell.Color `json:"playerB"`
	Cursor   tcell.Color `json:"cursor"`
	LastMove tcell.Color `json:"lastMove"`
	Win      tcell.Color `json:"win"`
	Label    tcell.Color `json:"label"`
	Msg      tcell.Color `json:"msg"`
}

// ThemeHex is the form a Theme takes in a config file
type ThemeHex struct {
	Name     string `json:"name"`
	Frame    string `json:"frame"`
	Empty    string `json:"empty"`
	PlayerA  string `json:"playerA"`
	PlayerB  string `json:"playerB"`
	Cursor   string `json:"cursor"`
	LastMove string `json:"lastMove"`
	Win      string `json:"win"`
	Label    string `json:"label"`
	Msg      string `json:"msg"`
}

// fmtHex keeps ColorDefault distinguishable from black once written out
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:     t.Name,
		Frame:    fmtHex(t.Frame.Hex()),
		Empty:    fmtHex(t.Empty.Hex()),
		PlayerA:  fmtHex(t.PlayerA.Hex()),
		PlayerB:  fmtHex(t.PlayerB.Hex()),
		Cursor:   fmtHex(t.Cursor.Hex()),
		LastMove: fmtHex(t.LastMove.Hex()),
		Win:      fmtHex(t.Win.Hex()),
		Label:    fmtHex(t.Label.Hex()),
		Msg:      fmtHex(t.Msg.Hex()),
	}
}

func (t ThemeHex) Theme() Theme {
	return Theme{
		Name:     t.Name,
		Frame:    getColor(t.Frame),
		Empty:    getColor(t.Empty),
		PlayerA:  getColor(t.PlayerA),
		PlayerB:  getColor(t.PlayerB),
		Cursor:   getColor(t.Cursor),
		LastMove: getColor(t.LastMove),
		Win:      getColor(t.Win),
		Label:    getColor(t.Label),
		Msg:      getColor(t.Msg),
	}
}

func getColor(hex string) tcell.Color {
	if hex == "#0" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(hex)
}

// LoadThemes reads a JSON array of themes
func LoadThemes(r io.Reader) ([]ThemeHex, error) {
	var themes []ThemeHex
	if err := json.NewDecoder(r).Decode(&themes); err != nil {
		return nil, fmt.Errorf("theme: %w", err)
	}
	return themes, nil
}

// ImportThemes looks want up in themes first, then in the built-in ones.
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}

	for _, t := range BuiltinThemes {
		if t.Name == want {
			return t, nil
		}
	}

	return Theme{}, fmt.Errorf("%w: %q", ErrNoTheme, want)
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	Name:     "basic",
	Frame:    tcell.Color25,
	Empty:    tcell.Color232,
	PlayerA:  tcell.Color160,
	PlayerB:  tcell.Color226,
	Cursor:   tcell.Color33,
	LastMove: tcell.Color231,
	Win:      tcell.Color46,
	Label:    tcell.Color247,
	Msg:      tcell.Color160,
}

var ThemeMono = Theme{
	Name:     "mono",
	Frame:    tcell.ColorDefault,
	Empty:    tcell.Color240,
	PlayerA:  tcell.Color255,
	PlayerB:  tcell.Color245,
	Cursor:   tcell.Color250,
	LastMove: tcell.Color255,
	Win:      tcell.Color255,
	Label:    tcell.Color247,
	Msg:      tcell.ColorDefault,
}

var BuiltinThemes = []Theme{ThemeBasic, ThemeMono}
