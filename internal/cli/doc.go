// Package cli provides command-line interface setup and configuration
// for clozerecall. It builds the cobra command tree, binds flags into
// viper keys and reads the YAML config file.
package cli
