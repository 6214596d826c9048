// Package file keeps docrag's user-editable state on disk: settings in
// config.toml and system prompt overrides in a prompts directory.
package file
