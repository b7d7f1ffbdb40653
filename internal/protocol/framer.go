package protocol

import (
	"bytes"
	"strings"
)

// LineFramer incrementally splits a raw byte stream into text lines. A
// line may span any number of fed chunks; bytes that do not form valid
// UTF-8 (for example a multi-byte sequence cut off by a connection
// drop) are removed from the produced line rather than rejected.
type LineFramer struct {
	buf   []byte
	scan  int
	lines []string
}

// Feed appends a raw chunk and extracts any lines it completes. Only
// newly appended bytes are scanned, so total work stays linear in the
// stream length no matter how the chunks are split.
func (f *LineFramer) Feed(chunk []byte) {
	f.buf = append(f.buf, chunk...)
	for {
		i := bytes.IndexByte(f.buf[f.scan:], '\n')
		if i < 0 {
			f.scan = len(f.buf)
			return
		}
		end := f.scan + i
		line := f.buf[:end]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		f.lines = append(f.lines, strings.ToValidUTF8(string(line), ""))
		f.buf = append(f.buf[:0], f.buf[end+1:]...)
		f.scan = 0
	}
}

// NextLine pops the oldest complete line, without its newline. It
// never blocks; the caller refills the framer from the transport when
// no line is buffered yet.
func (f *LineFramer) NextLine() (string, bool) {
	if len(f.lines) == 0 {
		return "", false
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	if len(f.lines) == 0 {
		f.lines = nil
	}
	return line, true
}

// Pending reports how many complete lines are buffered.
func (f *LineFramer) Pending() int {
	return len(f.lines)
}
