package generate

import (
	"strings"
	"testing"

	zcodex "github.com/Paranoid-AF/zcodex"
)

func TestLoadProfilesCoversEveryVariant(t *testing.T) {
	profiles, err := LoadProfiles()
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range zcodex.Variants {
		if _, ok := profiles[v]; !ok {
			t.Errorf("missing profile for %s", v)
		}
	}
}

func TestLoadProfilesInfillPreamble(t *testing.T) {
	p := mustProfile(t, zcodex.VariantLocalInfill)
	if !p.Infill || p.TemplateName != "inst-v1" || p.PreambleTrim != 39 {
		t.Errorf("unexpected infill profile: %+v", p)
	}
	for _, v := range []zcodex.Variant{zcodex.VariantCompletion, zcodex.VariantChat, zcodex.VariantLocalCompletion} {
		if mustProfile(t, v).PreambleTrim != 0 {
			t.Errorf("%s should not trim a preamble", v)
		}
	}
}

func TestParseProfilesErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown variant", "[edit]\npath = \"/v1/edits\"\n", "unknown variant"},
		{"unknown key", "[chat]\npath = \"/x\"\ntop_p = 1.0\n", "unknown profile keys"},
		{"missing path", "[chat]\nchat = true\n", "path is required"},
		{"infill without template", "[local_infill]\npath = \"/completion\"\ninfill = true\n", "requires a template"},
		{"chat and infill", "[local_infill]\npath = \"/c\"\nchat = true\ninfill = true\ntemplate = \"x\"\n", "exclusive"},
		{"bad toml", "[chat\n", "decode profiles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProfiles(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
