// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcodagnone/postalgeo/geocoding"
	"github.com/jcodagnone/postalgeo/spatial"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode [postal-code...]",
	Short: "Geocode postal codes given as arguments or on stdin",
	Long: `Geocodes each postal code and prints it followed by its latitude and
longitude. Without arguments, codes are read from stdin, one per line.

$ echo 19103 | postalgeo geocode
19103	39.9526	-75.1652
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, closer, err := openGeocoder(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		out := cmd.OutOrStdout()

		if len(args) > 0 {
			for _, code := range args {
				printResult(out, g.Resolve(cmd.Context(), code))
			}

			return nil
		}

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter postal codes, one per line…")
		}

		return geocodeLines(cmd.Context(), g, input, out)
	},
}

func geocodeLines(ctx context.Context, g *geocoding.Geocoder, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		code := strings.TrimSpace(scanner.Text())
		if code == "" {
			continue
		}

		printResult(out, g.Resolve(ctx, code))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func printResult(out io.Writer, r geocoding.Result) {
	if !r.OK() {
		fmt.Fprintf(out, "%s\t%q\n", r.PostalCode, r.Err)

		return
	}

	fmt.Fprintf(out, "%s\t%s\t%s\n", r.PostalCode,
		spatial.FormatComponent(r.Point.Lat), spatial.FormatComponent(r.Point.Lng))
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
