/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package main

import (
	"github.com/stackhand/stackhand/cmd"
)

func main() {
	cmd.Execute()
}
