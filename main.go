// SPDX-License-Identifier: MPL-2.0

// Command specsync keeps spec runner imports in sync with glob patterns.
package main

import cmd "github.com/specsync/specsync/cmd/specsync"

func main() {
	cmd.Execute()
}
