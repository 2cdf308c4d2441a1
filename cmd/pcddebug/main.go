/*
Copyright © 2025 Platform9 Systems
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"github.com/platform9/pcddebug/pkg/cli"
)

func main() {
	cli.Execute()
}
