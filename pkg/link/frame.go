// Package link carries command frames to the hardware controller over a
// serial byte stream and drains whatever the controller says back.
package link

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// EncodeFrame serializes six joint targets in the controller's wire
// format: comma-separated decimal integers terminated by a single '*',
// no newline. This framing is what the firmware parses; the '*' is the
// only delimiter.
func EncodeFrame(targets [6]int) []byte {
	buf := make([]byte, 0, 32)
	for i, v := range targets {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	return append(buf, '*')
}

// DecodeReply interprets raw reply bytes as a trimmed UTF-8 line.
// Replies are opaque diagnostics with no mandated format; anything that
// is not valid text, or trims to nothing, counts as no reply rather
// than an error.
func DecodeReply(raw []byte) (string, bool) {
	if len(raw) == 0 || !utf8.Valid(raw) {
		return "", false
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "", false
	}
	return s, true
}
