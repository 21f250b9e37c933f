// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pkgbind/pkgbind/cmd/pkgbind"

func main() {
	cmd.Execute()
}
