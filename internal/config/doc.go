// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// The project file specsync.cue in the working directory takes precedence over
// the user file (config.cue under $XDG_CONFIG_HOME/specsync, ~/Library/Application
// Support/specsync on macOS, %APPDATA%\specsync on Windows). Both are validated
// against the embedded config_schema.cue, and SPECSYNC_* environment variables
// override scalar settings.
package config
