// Package redact masks secrets in a command-line buffer before it is sent to
// a completion endpoint. Masks are spliced into the original text, so spacing
// and quoting the user typed are kept and the cursor can be carried across.
package redact

import (
	"regexp"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// NameMask replaces the name in a sensitive parameter expansion.
	NameMask = "REDACTED"
	// ValueMask replaces the value of a sensitive assignment.
	ValueMask = "***"
)

// publicNames are environment variables that carry no credentials and help
// the model understand the command.
var publicNames = map[string]bool{
	"HOME": true, "USER": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "PATH": true, "LANG": true, "TERM": true,
	"EDITOR": true, "PAGER": true, "HOSTNAME": true, "LOGNAME": true,
	"TMPDIR": true, "XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true,
	"XDG_RUNTIME_DIR": true, "DISPLAY": true, "WAYLAND_DISPLAY": true,
	"HISTFILE": true, "HISTSIZE": true, "SHLVL": true,
	"COLUMNS": true, "LINES": true, "LC_ALL": true, "LC_CTYPE": true,
	"ZDOTDIR": true, "ZSH": true, "FPATH": true, "PROMPT": true,
	"RPROMPT": true, "PS1": true, NameMask: true,
}

func keep(name string) bool {
	if publicNames[name] {
		return true
	}
	// Positional and special parameters: $1, $?, $@, $$ and friends.
	return len(name) == 1 && strings.ContainsAny(name, "0123456789?!#@*-$_")
}

// span replaces buf[start:end] with mask.
type span struct {
	start, end int
	mask       string
}

// Buffer masks the command line before+after as a whole and splits the
// result at the same logical cursor. A cursor inside a masked span lands
// after the mask, so no part of the secret survives on either side.
func Buffer(before, after string) (string, string) {
	buf := before + after
	spans := find(buf)
	if len(spans) == 0 {
		return before, after
	}

	var b strings.Builder
	cursor := len(before)
	newCursor := -1
	last := 0
	for _, s := range spans {
		if newCursor < 0 && cursor <= s.start {
			newCursor = b.Len() + cursor - last
		}
		b.WriteString(buf[last:s.start])
		b.WriteString(s.mask)
		if newCursor < 0 && cursor < s.end {
			newCursor = b.Len()
		}
		last = s.end
	}
	if newCursor < 0 {
		newCursor = b.Len() + cursor - last
	}
	b.WriteString(buf[last:])
	out := b.String()
	return out[:newCursor], out[newCursor:]
}

// Command masks secrets in a complete command line.
func Command(cmd string) string {
	out, _ := Buffer(cmd, "")
	return out
}

// find returns the non-overlapping spans to mask, ordered by offset.
func find(buf string) []span {
	spans, err := parseSpans(buf)
	if err != nil {
		// Half-typed buffers (open quote, trailing pipe) often fail to parse.
		spans = scanSpans(buf)
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})
	out := spans[:0]
	end := -1
	for _, s := range spans {
		if s.start < end {
			continue
		}
		out = append(out, s)
		end = s.end
	}
	return out
}

// parseSpans walks the syntax tree. mvdan.cc/sh has no zsh dialect; bash
// covers the assignment and expansion forms masked here, and zsh-only
// syntax falls through to scanSpans.
func parseSpans(buf string) ([]span, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(buf), "")
	if err != nil {
		return nil, err
	}

	var spans []span
	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.ParamExp:
			if n.Param != nil && !keep(n.Param.Value) {
				spans = append(spans, span{
					start: int(n.Param.Pos().Offset()),
					end:   int(n.Param.End().Offset()),
					mask:  NameMask,
				})
			}
		case *syntax.Assign:
			if n.Name == nil || keep(n.Name.Value) || n.Value == nil || len(n.Value.Parts) == 0 {
				return true
			}
			spans = append(spans, span{
				start: int(n.Value.Pos().Offset()),
				end:   int(n.Value.End().Offset()),
				mask:  ValueMask,
			})
			// The value is gone; expansions inside it need no mask of their own.
			return false
		}
		return true
	})
	return spans, nil
}

var (
	reBraceParam = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	reParam      = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	reAssign     = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=(\S+)`)
)

// scanSpans finds the same constructs lexically when the buffer does not parse.
func scanSpans(buf string) []span {
	var spans []span
	for _, re := range []*regexp.Regexp{reBraceParam, reParam} {
		for _, m := range re.FindAllStringSubmatchIndex(buf, -1) {
			if !keep(buf[m[2]:m[3]]) {
				spans = append(spans, span{start: m[2], end: m[3], mask: NameMask})
			}
		}
	}
	for _, m := range reAssign.FindAllStringSubmatchIndex(buf, -1) {
		if !keep(buf[m[2]:m[3]]) {
			spans = append(spans, span{start: m[4], end: m[5], mask: ValueMask})
		}
	}
	return spans
}
