// Package utils provides small shared helpers.
package utils

import "unicode/utf8"

// MaskKey masks an API key or bot token for safe logging (first 6 and last 4
// characters). Use this anywhere a credential could reach a log line.
func MaskKey(key string) string {
	if key == "" {
		return "(empty)"
	}
	if len(key) < 14 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-4:]
}

// ChunkString splits s into pieces of at most size bytes, preserving order.
// Telegram rejects messages over its length limit, so long replies are sent
// as consecutive chunks. Cuts land on rune boundaries so a multibyte
// character is never torn across two chunks.
func ChunkString(s string, size int) []string {
	if s == "" || size <= 0 {
		return nil
	}
	chunks := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			// A single rune wider than size cannot be split cleanly.
			cut = size
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	return append(chunks, s)
}
