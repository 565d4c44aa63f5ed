// Package defaults provides embedded default assets (settings template, persona and endpoint profiles).
package defaults

import _ "embed"

//go:embed openaiapirc
var SettingsTemplate string

//go:embed default_persona.md
var DefaultPersona string

//go:embed profiles.toml
var ProfilesTOML string
