package zcodex

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	defaults "github.com/Paranoid-AF/zcodex/default"
	"gopkg.in/ini.v1"
)

const (
	// DefaultModel is used when the settings file has no model key.
	DefaultModel = "gpt-3.5-turbo"
	// CloudURL is the base URL used when the local server is not selected.
	CloudURL = "https://api.openai.com"
	// LocalServerURL is the base URL of a locally hosted completion server.
	LocalServerURL = "http://localhost:8080"

	settingsSection  = "openai"
	settingsFileName = "openaiapirc"
	personaFileName  = "zcodex_persona.md"
)

// Settings holds everything the pipeline reads from the settings file and environment.
type Settings struct {
	OrganizationID string
	APIKey         string
	Model          string
	APIURL         string

	UseLocalServer bool
	Variant        Variant
	RedactSecrets  bool
	// Grammar is passed through to local servers that support constrained decoding.
	Grammar string
}

// Options carries choices made by the caller rather than the settings file.
type Options struct {
	// UseLocalServer selects the local server even when the file does not.
	UseLocalServer bool
	// Variant overrides the variant named in the file, if non-empty.
	Variant Variant
	// Guidance receives operator instructions when the settings file is created.
	// Defaults to os.Stderr.
	Guidance io.Writer
}

// ConfigDir returns the config directory path.
// Resolution order: $XDG_CONFIG_HOME > ~/.config
func ConfigDir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "zcodex-config")
	}
	return filepath.Join(home, ".config")
}

// SettingsPath returns the full path to the settings file.
func SettingsPath() string {
	return filepath.Join(ConfigDir(), settingsFileName)
}

// PersonaPath returns the path of the optional persona override.
func PersonaPath() string {
	return filepath.Join(ConfigDir(), personaFileName)
}

// EnsureSettingsFile writes the settings template when path does not exist.
// It reports whether the file was created.
func EnsureSettingsFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		// Another invocation created it first.
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if _, err := f.WriteString(defaults.SettingsTemplate); err != nil {
		return false, err
	}
	return true, f.Close()
}

func writeGuidance(w io.Writer, path string) {
	fmt.Fprintf(w, "OpenAI API config file created at %s\n", path)
	fmt.Fprintln(w, "Please edit it and add your organization ID and secret key")
	fmt.Fprintln(w, "If you do not yet have an organization ID and secret key, you")
	fmt.Fprintln(w, "need to register for the OpenAI API: https://platform.openai.com/")
}

// LoadSettings reads the settings file at path. A missing file is replaced by
// the template and reported as ErrConfigMissing; nothing else should happen
// in that invocation. Failing to write the template is a plain I/O error.
//
// The variant and the server selection always agree: a local variant talks to
// the local server, a cloud variant to the cloud. A -variant flag decides over
// use_local_server in the file; any other disagreement is ErrConfigMalformed.
func LoadSettings(path string, opts Options) (*Settings, error) {
	created, err := EnsureSettingsFile(path)
	if err != nil {
		return nil, fmt.Errorf("create settings file %s: %w", path, err)
	}
	if created {
		w := opts.Guidance
		if w == nil {
			w = os.Stderr
		}
		writeGuidance(w, path)
		return nil, Errorf(KindConfigMissing, nil, "settings file created at %s; fill it in and retry", path)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:     true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, Errorf(KindConfigMalformed, err, "cannot parse %s", path)
	}

	sec, err := file.GetSection(settingsSection)
	if err != nil {
		return nil, Errorf(KindConfigMalformed, err, "%s: missing [%s] section", path, settingsSection)
	}

	var s Settings
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"organization_id", &s.OrganizationID},
		{"secret_key", &s.APIKey},
	} {
		key, err := sec.GetKey(field.key)
		if err != nil {
			return nil, Errorf(KindConfigMalformed, err, "%s: missing %s", path, field.key)
		}
		*field.dst = unquote(key.String())
	}

	s.Model = DefaultModel
	if sec.HasKey("model") {
		s.Model = unquote(sec.Key("model").String())
	}

	if sec.HasKey("use_local_server") {
		v, err := sec.Key("use_local_server").Bool()
		if err != nil {
			return nil, Errorf(KindConfigMalformed, err, "%s: use_local_server", path)
		}
		s.UseLocalServer = v
	}
	if sec.HasKey("redact_secrets") {
		v, err := sec.Key("redact_secrets").Bool()
		if err != nil {
			return nil, Errorf(KindConfigMalformed, err, "%s: redact_secrets", path)
		}
		s.RedactSecrets = v
	}
	if sec.HasKey("variant") {
		if name := unquote(sec.Key("variant").String()); name != "" {
			v, err := ParseVariant(name)
			if err != nil {
				return nil, Errorf(KindConfigMalformed, err, "%s: variant", path)
			}
			s.Variant = v
		}
	}
	if sec.HasKey("grammar") {
		s.Grammar = sec.Key("grammar").String()
	}

	local, localSet := s.UseLocalServer, sec.HasKey("use_local_server")
	if opts.Variant != "" {
		s.Variant, localSet = opts.Variant, false
	}
	if opts.UseLocalServer {
		local, localSet = true, true
	}
	switch {
	case s.Variant == "" && local:
		s.Variant = VariantLocalCompletion
	case s.Variant == "":
		s.Variant = VariantCompletion
	case localSet && local != s.Variant.Local():
		return nil, Errorf(KindConfigMalformed, nil,
			"%s: variant %s does not match use_local_server=%t", path, s.Variant, local)
	}
	s.UseLocalServer = s.Variant.Local()

	s.APIURL = ResolveBaseURL(&s)
	s.APIKey = ResolveAPIKey(&s)
	s.Model = ResolveModel(&s)

	if s.APIKey == "" && !s.UseLocalServer {
		slog.Warn("secret_key is empty; the cloud API will reject the request", "path", path)
	}

	return &s, nil
}

// unquote strips surrounding double quotes, then single quotes.
func unquote(s string) string {
	return strings.Trim(strings.Trim(strings.TrimSpace(s), `"`), "'")
}

// ResolveBaseURL returns the completion API base URL.
// Priority: $ZCODEX_BASE_URL env > local/cloud selection.
func ResolveBaseURL(s *Settings) string {
	if url := os.Getenv("ZCODEX_BASE_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	if s != nil && s.UseLocalServer {
		return LocalServerURL
	}
	return CloudURL
}

// ResolveAPIKey returns the API key.
// Priority: $ZCODEX_API_KEY env > settings value.
func ResolveAPIKey(s *Settings) string {
	if key := os.Getenv("ZCODEX_API_KEY"); key != "" {
		return key
	}
	if s != nil {
		return s.APIKey
	}
	return ""
}

// ResolveModel returns the model name.
// Priority: $ZCODEX_MODEL env > settings value > DefaultModel.
// A model key present in the file wins even when it is empty.
func ResolveModel(s *Settings) string {
	if model := os.Getenv("ZCODEX_MODEL"); model != "" {
		return model
	}
	if s != nil {
		return s.Model
	}
	return DefaultModel
}
