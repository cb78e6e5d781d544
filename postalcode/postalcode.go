// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

// Package postalcode validates and normalizes postal codes before they are
// geocoded.
package postalcode

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Validator checks the syntax of a postal code. Implementations must be pure
// and must not panic on any input.
type Validator interface {
	Validate(code string) bool
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(code string) bool

// Validate calls f(code).
func (f ValidatorFunc) Validate(code string) bool {
	return f(code)
}

var usZIP = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// US accepts five digit ZIP codes and ZIP+4 codes ("12345", "12345-6789").
var US Validator = ValidatorFunc(usZIP.MatchString)

// Normalize trims surrounding whitespace and folds full-width digits and
// dashes to their ASCII forms, so "１２３４５" and " 12345 " both become "12345".
func Normalize(code string) string {
	return strings.TrimSpace(width.Narrow.String(code))
}
