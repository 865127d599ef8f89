// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/treepickup/pickup/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
