package game

import (
	"regexp"

	petname "github.com/dustinkirkland/golang-petname"
)

const MaxNickLength = 16

var nickRegexp = regexp.MustCompile(`[^a-zA-Z0-9_\-!@#$%^&*+=,./]+`)

// Nickname strips characters that do not belong in a nickname and falls back
// to a random name when nothing is left.
func Nickname(nick string) string {
	nick = nickRegexp.ReplaceAllString(nick, "")
	if len(nick) > MaxNickLength {
		nick = nick[:MaxNickLength]
	} else if nick == "" {
		nick = petname.Generate(2, "-")
	}

	return nick
}
