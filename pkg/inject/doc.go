// SPDX-License-Identifier: MPL-2.0

// Package inject keeps the load-statement block of a spec runner file in sync
// with the set of files matched by ordered glob patterns.
//
// The text surgery is exposed as pure functions (Splice, InsertAfter, Block) so
// it can be exercised without touching disk. Injector wraps them with glob
// expansion, optional template rendering to a content-hashed output file, and
// atomic writes.
//
// A typical in-place target looks like:
//
//	Promise.all([
//	    // inject:start
//	    System.import('specs/a'),
//	    System.import('specs/b')
//	    // inject:end
//	]);
//
// Every run replaces the span between the two markers with exactly the current
// set of matches, so re-running with an unchanged file set is a no-op.
package inject
