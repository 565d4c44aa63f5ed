package generate

import (
	"errors"
	"testing"

	zcodex "github.com/Paranoid-AF/zcodex"
)

func TestExtractChoicesText(t *testing.T) {
	r, err := Extract([]byte(`{"choices":[{"text":"ls -la\n"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != ChoiceList {
		t.Errorf("expected ChoiceList, got %v", r.Kind)
	}
	if r.Text != "ls -la\n" {
		t.Errorf("expected %q, got %q", "ls -la\n", r.Text)
	}
}

func TestExtractChoicesMessage(t *testing.T) {
	r, err := Extract([]byte(`{"choices":[{"message":{"role":"assistant","content":"git status"}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != ChoiceList || r.Text != "git status" {
		t.Errorf("got %+v", r)
	}
}

func TestExtractDirectContent(t *testing.T) {
	r, err := Extract([]byte(`{"content":"ls -la"}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != DirectContent {
		t.Errorf("expected DirectContent, got %v", r.Kind)
	}
	if r.Text != "ls -la" {
		t.Errorf("expected %q, got %q", "ls -la", r.Text)
	}
}

func TestExtractChoicesWinOverContent(t *testing.T) {
	r, err := Extract([]byte(`{"content":"b","choices":[{"text":"a"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != ChoiceList || r.Text != "a" {
		t.Errorf("got %+v", r)
	}
}

func TestExtractShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty choices", `{"choices":[]}`},
		{"choice without text", `{"choices":[{"index":0}]}`},
		{"not json", `<html>bad gateway</html>`},
		{"wrong type", `{"content":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.body))
			if !errors.Is(err, zcodex.ErrResponseShapeMismatch) {
				t.Errorf("expected ErrResponseShapeMismatch, got %v", err)
			}
		})
	}
}

func TestExtractAPIError(t *testing.T) {
	_, err := Extract([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	if !errors.Is(err, zcodex.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
}

func TestCleanStripsPrefix(t *testing.T) {
	s := Split{Before: "echo hel"}
	infill := Profile{Infill: true, TrimBarePrefix: true}
	tests := []struct {
		name    string
		profile Profile
		text    string
		want    string
	}{
		{"completion full prefix echoed", Profile{}, "#!/bin/zsh\n\necho hello world", "lo world"},
		{"completion bare prefix kept", Profile{}, "echo hello", "echo hello"},
		{"chat full prefix echoed", Profile{Chat: true}, "#!/bin/zsh\n\necho hello", "lo"},
		{"chat bare prefix kept", Profile{Chat: true}, "echo hello", "echo hello"},
		{"infill full prefix echoed", infill, "#!/bin/zsh\n\necho hello", "lo"},
		{"infill bare prefix echoed", infill, "echo hello", "lo"},
		{"no echo", infill, "lo", "lo"},
		{"prefix not at start", infill, "say echo hel", "say echo hel"},
		{"only removed once", infill, "echo helecho hel", "echo hel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(Result{Kind: ChoiceList, Text: tt.text}, s, tt.profile)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCleanChoicesKeepsNewline(t *testing.T) {
	r, err := Extract([]byte(`{"choices":[{"text":"ls -la\n"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := Clean(r, Split{Before: "ls"}, Profile{}); got != "ls -la\n" {
		t.Errorf("got %q", got)
	}
	if got := Clean(r, Split{Before: "ls"}, Profile{TrimBarePrefix: true}); got != " -la\n" {
		t.Errorf("got %q", got)
	}
}

func TestCleanEmbeddedProfiles(t *testing.T) {
	profiles, err := LoadProfiles()
	if err != nil {
		t.Fatal(err)
	}
	s := Split{Before: "git st"}
	for _, v := range []zcodex.Variant{zcodex.VariantCompletion, zcodex.VariantChat, zcodex.VariantLocalCompletion} {
		if got := Clean(Result{Kind: ChoiceList, Text: "git status"}, s, profiles[v]); got != "git status" {
			t.Errorf("%s: got %q, want bare echo kept", v, got)
		}
	}
	if !profiles[zcodex.VariantLocalInfill].TrimBarePrefix {
		t.Error("local_infill should trim the bare prefix")
	}
}

func TestCleanDirectContentUnchanged(t *testing.T) {
	got := Clean(Result{Kind: DirectContent, Text: "ls -la"}, Split{Before: "echo"}, Profile{})
	if got != "ls -la" {
		t.Errorf("got %q", got)
	}
}

func TestCleanPreambleTrim(t *testing.T) {
	p := Profile{PreambleTrim: 5, TrimBarePrefix: true}
	s := Split{Before: "git "}
	got := Clean(Result{Kind: DirectContent, Text: "01234git status"}, s, p)
	if got != "status" {
		t.Errorf("got %q", got)
	}
	// Shorter than the preamble: nothing survives.
	if got := Clean(Result{Kind: DirectContent, Text: "abc"}, s, p); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestDropCharsCountsRunes(t *testing.T) {
	if got := dropChars("日本語abc", 2); got != "語abc" {
		t.Errorf("got %q", got)
	}
	if got := dropChars("abc", 3); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestTrimEchoSkipsEmpty(t *testing.T) {
	if got := TrimEcho("ls", "", "l"); got != "s" {
		t.Errorf("got %q", got)
	}
}
