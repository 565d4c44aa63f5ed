package generate

import (
	"unicode/utf8"

	zcodex "github.com/Paranoid-AF/zcodex"
)

// Shebang is prepended to every prompt so the model sees shell context.
const Shebang = "#!/bin/zsh\n\n"

// Split is the command-line buffer divided at the cursor.
type Split struct {
	// Before is the buffer text left of the cursor.
	Before string
	// After is the buffer text right of the cursor.
	After string
}

// SplitBuffer divides buffer at cursor, counted in characters as the shell reports it.
func SplitBuffer(buffer string, cursor int) (Split, error) {
	n := utf8.RuneCountInString(buffer)
	if cursor < 0 || cursor > n {
		return Split{}, zcodex.Errorf(zcodex.KindInvalidCursor, nil,
			"cursor offset %d outside buffer of %d characters", cursor, n)
	}

	// Walk runes to find the byte offset of the cursor.
	i := 0
	for pos := range buffer {
		if i == cursor {
			return Split{Before: buffer[:pos], After: buffer[pos:]}, nil
		}
		i++
	}
	return Split{Before: buffer}, nil
}

// Prefix is the prompt context before the cursor, shebang included.
func (s Split) Prefix() string { return Shebang + s.Before }

// Suffix is the text after the cursor.
func (s Split) Suffix() string { return s.After }

// FullCommand is the prompt sent to the model: Prefix followed by Suffix.
func (s Split) FullCommand() string { return s.Prefix() + s.Suffix() }
