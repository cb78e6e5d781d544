// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/postalgeo/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
