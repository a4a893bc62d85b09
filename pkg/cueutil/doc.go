// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// ParseAndDecode runs the three steps every specsync CUE file goes through:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to a Go value
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[map[string]any](
//	    schema,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("specsync.cue"),
//	    cueutil.WithConcrete(false),
//	)
//	if err != nil {
//	    return err // includes the CUE path of the offending field
//	}
package cueutil
