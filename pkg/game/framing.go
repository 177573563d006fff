package game

import (
	"bytes"
	"strconv"
)

// Each move on the wire is the column in ASCII decimal terminated by a
// newline, e.g. "3\n". TCP gives no message boundaries, so a read may end in
// the middle of a token or carry several of them.
const (
	Delimiter      = '\n'
	MaxTokenLength = 16
)

func EncodeColumn(column int) []byte {
	b := strconv.AppendInt(make([]byte, 0, 4), int64(column), 10)
	return append(b, Delimiter)
}

// decoder reassembles tokens across reads.
type decoder struct {
	partial  []byte
	overflow bool
}

// Feed consumes p. Complete tokens are passed to emit in stream order,
// malformed ones to bad. Bytes after the last delimiter are kept for the
// next call.
func (d *decoder) Feed(p []byte, emit func(column int), bad func(err *ProtocolError)) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, Delimiter)
		if i < 0 {
			d.buffer(p)
			return
		}

		d.buffer(p[:i])
		d.flush(emit, bad)
		p = p[i+1:]
	}
}

func (d *decoder) buffer(b []byte) {
	if d.overflow {
		return
	}

	if len(d.partial)+len(b) > MaxTokenLength {
		d.overflow = true
		room := MaxTokenLength - len(d.partial)
		if room > 0 {
			d.partial = append(d.partial, b[:room]...)
		}
		return
	}

	d.partial = append(d.partial, b...)
}

func (d *decoder) flush(emit func(int), bad func(*ProtocolError)) {
	defer func() {
		d.partial = d.partial[:0]
		d.overflow = false
	}()

	token := bytes.TrimSpace(d.partial)
	if d.overflow {
		bad(&ProtocolError{Token: string(token), Reason: "token too long"})
		return
	} else if len(token) == 0 {
		return
	}

	column, err := strconv.Atoi(string(token))
	if err != nil {
		bad(&ProtocolError{Token: string(token), Reason: "not an integer"})
		return
	}

	emit(column)
}

// Pending reports whether a partial token is buffered.
func (d *decoder) Pending() bool {
	return len(d.partial) > 0 || d.overflow
}
