// Package config loads and validates the YAML configuration file and
// watches it for changes. Missing optional fields are filled with
// defaults; a reload that fails to parse or validate keeps the previous
// configuration active.
package config
