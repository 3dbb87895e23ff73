package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", "(empty)"},
		{"short key", "sk-123", "****"},
		{"normal key", "sk-ant-api123456789abcdef", "sk-ant...cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaskKey(tt.input)
			if result != tt.expected {
				t.Errorf("MaskKey(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestChunkString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		size  int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "hello", 10, []string{"hello"}},
		{"exact boundary", "abcdef", 3, []string{"abc", "def"}},
		{"remainder", "abcdefg", 3, []string{"abc", "def", "g"}},
		{"zero size", "abc", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkString(tt.input, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("ChunkString(%q, %d) = %v, want %v", tt.input, tt.size, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if strings.Join(got, "") != tt.input && tt.size > 0 {
				t.Errorf("chunks do not reassemble to input")
			}
		})
	}
}

func TestChunkString_MultibyteBoundary(t *testing.T) {
	// 2000 three-byte runes: 6000 bytes, so a naive 4096-byte cut would land
	// mid-rune.
	input := strings.Repeat("你", 2000)
	got := ChunkString(input, 4096)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is not valid UTF-8 (len=%d)", i, len(chunk))
		}
		if len(chunk) > 4096 {
			t.Errorf("chunk %d length = %d, exceeds limit", i, len(chunk))
		}
	}
	if strings.Join(got, "") != input {
		t.Errorf("chunks do not reassemble to input")
	}
}

func TestChunkString_LongInput(t *testing.T) {
	input := strings.Repeat("x", 4096*2+1)
	got := ChunkString(input, 4096)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if len(got[2]) != 1 {
		t.Errorf("last chunk length = %d, want 1", len(got[2]))
	}
}
