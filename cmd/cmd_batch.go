// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jcodagnone/postalgeo/geocoding"
	"github.com/jcodagnone/postalgeo/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Geocode a file of postal codes and write CSV to stdout",
	Long: `Reads one postal code per line from <file> ("-" for stdin) and writes
postal_code,status,lat,lng,error rows to stdout, in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codes, err := readCodes(args[0])
		if err != nil {
			return err
		}

		g, closer, err := openGeocoder(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(codes),
				progressbar.OptionSetDescription("Geocoding"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		results, err := geocodeAll(cmd.Context(), g, codes, batchConcurrency, func() {
			if bar != nil {
				_ = bar.Add(1)
			}
		})
		if err != nil {
			return err
		}

		if err := writeCSV(cmd.OutOrStdout(), results); err != nil {
			return err
		}

		m := g.Metrics()
		log.Printf("✅ Geocoded %d postal codes (%d cache hits, %d cached failures, %d provider calls, %d provider failures)\n",
			len(codes), m.CacheHits, m.NegativeHits, m.ProviderCalls, m.ProviderFailures)

		return nil
	},
}

func readCodes(path string) ([]string, error) {
	var in io.Reader = os.Stdin

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()

		in = f
	}

	var codes []string

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if code := strings.TrimSpace(scanner.Text()); code != "" {
			codes = append(codes, code)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return codes, nil
}

// geocodeAll resolves codes with at most concurrency calls in flight and
// returns results in input order.
func geocodeAll(ctx context.Context, g *geocoding.Geocoder, codes []string, concurrency int, done func()) ([]geocoding.Result, error) {
	results := make([]geocoding.Result, len(codes))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(concurrency, 1))

	for i, code := range codes {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = g.Resolve(ctx, code)
			done()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func writeCSV(out io.Writer, results []geocoding.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"postal_code", "status", "lat", "lng", "error"}); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{r.PostalCode, r.Status.String(), "", "", ""}
		if r.OK() {
			row[2] = spatial.FormatComponent(r.Point.Lat)
			row[3] = spatial.FormatComponent(r.Point.Lng)
		} else {
			row[4] = r.Err.Error()
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 1, "number of postal codes resolved in parallel")
	rootCmd.AddCommand(batchCmd)
}
