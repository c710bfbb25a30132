// Package file provides file-based configuration and prompt storage.
// Settings are read from a TOML file; secrets are resolved from the
// environment variables the config names. Prompts live as editable
// text files with embedded defaults.
package file
