/*
Copyright © 2025 Stasis Authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"github.com/stasis-io/stasis/pkg/cli"
)

func main() {
	cli.Execute()
}
