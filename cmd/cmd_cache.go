// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jcodagnone/postalgeo/geocoding"
	"github.com/jcodagnone/postalgeo/postalcode"
	"github.com/jcodagnone/postalgeo/spatial"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the geocoding cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		n, err := store.Purge(cmd.Context())
		if err != nil {
			return err
		}

		log.Printf("🧹 Purged %d expired cache entries\n", n)

		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <postal-code>...",
	Short: "Print the raw cache entries of postal codes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		for _, code := range args {
			if err := showEntries(cmd.Context(), store, cmd.OutOrStdout(), code); err != nil {
				return err
			}
		}

		return nil
	},
}

func showEntries(ctx context.Context, store cacheStore, out io.Writer, code string) error {
	code = postalcode.Normalize(code)
	keyLat, keyLon := geocoding.CacheKeys(code)
	values := map[string]string{}

	for _, key := range []string{keyLat, keyLon} {
		entries, err := store.Entries(ctx, key)
		if err != nil {
			return err
		}

		found := false

		for _, e := range entries {
			if e.Key != key {
				continue
			}

			found = true
			values[key] = e.Value

			fmt.Fprintf(out, "%s\t%q\texpires %s\n", e.Key, e.Value, e.ExpiresAt.Format(time.RFC3339))
		}

		if !found {
			fmt.Fprintf(out, "%s\t<absent>\n", key)
		}
	}

	if p, err := spatial.ParsePoint(values[keyLat], values[keyLon]); err == nil {
		fmt.Fprintf(out, "%s\t%s\n", code, p)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
