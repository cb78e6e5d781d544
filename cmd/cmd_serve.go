// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/jcodagnone/postalgeo/geocoding"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the geocoding HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		g, closer, err := openGeocoder(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		log.Printf("📍 Geocoding provider: %s", options.Provider)
		log.Printf("🗺️  Listening on http://%s/api/geocode/<postal-code>", serveAddr)

		return geocoding.NewServer(g).Run(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}
