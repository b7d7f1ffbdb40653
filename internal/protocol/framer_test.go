package protocol

import (
	"strings"
	"testing"
)

func collectLines(f *LineFramer) []string {
	var out []string
	for {
		line, ok := f.NextLine()
		if !ok {
			return out
		}
		out = append(out, line)
	}
}

func TestLineFramerChunkSplitInvariance(t *testing.T) {
	// Multi-byte runes sit deliberately mid-stream so single-byte
	// splits cut through them.
	data := []byte("{\"temperature\":36.5}\nreport réglé — ok\n±0.5°C\r\nlast\n")

	whole := &LineFramer{}
	whole.Feed(data)
	want := collectLines(whole)
	if len(want) != 4 {
		t.Fatalf("expected 4 lines from whole buffer, got %d: %q", len(want), want)
	}

	for size := 1; size <= len(data); size++ {
		f := &LineFramer{}
		for start := 0; start < len(data); start += size {
			end := start + size
			if end > len(data) {
				end = len(data)
			}
			f.Feed(data[start:end])
		}
		got := collectLines(f)
		if len(got) != len(want) {
			t.Fatalf("chunk size %d: expected %d lines, got %d", size, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("chunk size %d line %d: expected %q, got %q", size, i, want[i], got[i])
			}
		}
	}
}

func TestLineFramerHoldsIncompleteTail(t *testing.T) {
	f := &LineFramer{}
	f.Feed([]byte("partial without newline"))
	if _, ok := f.NextLine(); ok {
		t.Fatalf("expected no line before newline arrives")
	}
	f.Feed([]byte(" and the rest\n"))
	line, ok := f.NextLine()
	if !ok {
		t.Fatalf("expected a line after newline arrives")
	}
	if line != "partial without newline and the rest" {
		t.Fatalf("unexpected line: %q", line)
	}
}

func TestLineFramerStripsCarriageReturn(t *testing.T) {
	f := &LineFramer{}
	f.Feed([]byte("abc\r\ndef\n"))
	if line, _ := f.NextLine(); line != "abc" {
		t.Fatalf("expected carriage return stripped, got %q", line)
	}
	if line, _ := f.NextLine(); line != "def" {
		t.Fatalf("expected plain line unchanged, got %q", line)
	}
}

func TestLineFramerDropsUndecodableBytes(t *testing.T) {
	f := &LineFramer{}
	f.Feed([]byte{'o', 'k', 0xff, 0xfe, '!', '\n'})
	line, ok := f.NextLine()
	if !ok {
		t.Fatalf("expected a line despite invalid bytes")
	}
	if line != "ok!" {
		t.Fatalf("expected invalid bytes dropped, got %q", line)
	}
}

func TestLineFramerLongLineAcrossManyChunks(t *testing.T) {
	f := &LineFramer{}
	piece := strings.Repeat("x", 100)
	for i := 0; i < 100; i++ {
		f.Feed([]byte(piece))
	}
	f.Feed([]byte("\n"))
	line, ok := f.NextLine()
	if !ok {
		t.Fatalf("expected accumulated line")
	}
	if len(line) != 100*100 {
		t.Fatalf("expected 10000 byte line, got %d", len(line))
	}
	if f.Pending() != 0 {
		t.Fatalf("expected no buffered lines, got %d", f.Pending())
	}
}
