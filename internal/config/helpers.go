package config

import (
	"divwatch-api/pkg/confkit"
	"divwatch-api/pkg/provider"
)

// DefaultPath is the main config file relative to the project root.
const DefaultPath = "etc/divwatch.yaml"

// MustLoadDefault loads etc/divwatch.yaml from the project root and panics on error.
func MustLoadDefault() *Config {
	return MustLoad(confkit.MustProjectPath(DefaultPath))
}

// MustLoadProvider loads etc/provider.yaml from the project root and panics on error.
// It avoids requiring the main config when tests only need the providers.
func MustLoadProvider() *provider.Config {
	return provider.MustLoad()
}
