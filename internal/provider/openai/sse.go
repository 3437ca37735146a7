package openai

import "strings"

// Decoder splits an append-only byte stream into blank-line-bounded frames.
// Both LF and CRLF blank lines terminate a frame. Content is never dropped
// or duplicated: every byte of input ends up in exactly one frame, one
// delimiter, or the remainder.
type Decoder struct {
	carry string
}

// NewDecoder creates an empty stream decoder.
func NewDecoder() *Decoder {
	return &Decoder{carry: ""}
}

// Feed appends chunk to the carry buffer and returns every complete frame
// found, in arrival order. The unconsumed remainder is retained.
func (d *Decoder) Feed(chunk string) []string {
	d.carry += chunk

	var frames []string
	for {
		frame, rest, ok := cutFrame(d.carry)
		if !ok {
			return frames
		}
		frames = append(frames, frame)
		d.carry = rest
	}
}

// Rest returns the unconsumed remainder.
func (d *Decoder) Rest() string {
	return d.carry
}

// cutFrame splits off the first delimiter-terminated frame, taking whichever
// blank-line flavor occurs earliest.
func cutFrame(s string) (frame, rest string, ok bool) {
	lf := strings.Index(s, "\n\n")
	crlf := strings.Index(s, "\r\n\r\n")

	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return s[:crlf], s[crlf+len("\r\n\r\n"):], true
	case lf >= 0:
		return s[:lf], s[lf+len("\n\n"):], true
	}
	return "", "", false
}
