// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/Girish-SCM/mt5-server/cmd/mt5server"

func main() {
	cmd.Execute()
}
