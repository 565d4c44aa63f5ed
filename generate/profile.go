package generate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	zcodex "github.com/Paranoid-AF/zcodex"
	defaults "github.com/Paranoid-AF/zcodex/default"
)

// Profile describes how one variant's request is shaped and how its output is cleaned.
type Profile struct {
	Path        string  `toml:"path"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	N           int     `toml:"n"`
	Stop        string  `toml:"stop"`

	// Chat sends a system persona and user prompt instead of a bare prompt.
	Chat bool `toml:"chat"`

	// Infill adds input_prefix/input_suffix and wraps the prompt in Template.
	Infill       bool   `toml:"infill"`
	TemplateName string `toml:"template_name"`
	Template     string `toml:"template"`
	// PreambleTrim is the number of leading characters the model echoes back
	// for TemplateName; they are dropped before the echo trim.
	PreambleTrim int `toml:"preamble_trim"`
	// TrimBarePrefix also strips the text before the cursor without the
	// shebang when the model echoes it back.
	TrimBarePrefix bool `toml:"trim_bare_prefix"`
}

// LoadProfiles decodes the embedded profile table.
func LoadProfiles() (map[zcodex.Variant]Profile, error) {
	return parseProfiles(defaults.ProfilesTOML)
}

func parseProfiles(src string) (map[zcodex.Variant]Profile, error) {
	var raw map[string]Profile
	md, err := toml.Decode(src, &raw)
	if err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown profile keys: %s", strings.Join(keys, ", "))
	}

	profiles := make(map[zcodex.Variant]Profile, len(raw))
	for name, p := range raw {
		v, err := zcodex.ParseVariant(name)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		if p.Path == "" {
			return nil, fmt.Errorf("profile %q: path is required", name)
		}
		if p.Chat && p.Infill {
			return nil, fmt.Errorf("profile %q: chat and infill are exclusive", name)
		}
		if p.Infill && p.Template == "" {
			return nil, fmt.Errorf("profile %q: infill requires a template", name)
		}
		profiles[v] = p
	}
	return profiles, nil
}
