// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the specsync command tree.
//
// Commands are built by NewRootCommand around an App, which owns the config
// provider, the injection service and the output streams. Handlers never
// call os.Exit: failures come back as *ExitError carrying a types.ExitCode,
// and Execute turns that into the process status.
package cmd
