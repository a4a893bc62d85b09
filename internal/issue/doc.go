// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource and remediation
// hints. The catalog in issue.go holds one Markdown help page per error class,
// rendered with glamour when the CLI runs with --verbose.
package issue
