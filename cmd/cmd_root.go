// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/postalgeo/geocoding"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "postalgeo",
	Short: "geocode US postal codes with a persistent cache",
	Long: `
postalgeo resolves US ZIP codes to latitude/longitude pairs through an external
geocoding provider. Results are cached for a year and failures for a day, so
repeated lookups never hit the provider twice.
`,
	SilenceUsage: true,
}

var Version = "dev"

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&options.Provider, "provider", geocoding.DefaultProvider,
		"geocoding provider ("+strings.Join(geocoding.Providers(), ", ")+")")
	flags.StringVar(&options.APIKey, "api-key", "", "provider api key (default $GOOGLE_MAPS_API_KEY, then ADC)")
	flags.StringVar(&options.UserAgent, "user-agent", "", "User-Agent sent to the provider")
	flags.DurationVar(&options.SuccessTTL, "success-ttl", geocoding.DefaultSuccessTTL, "how long resolved coordinates are cached")
	flags.DurationVar(&options.FailureTTL, "failure-ttl", geocoding.DefaultFailureTTL, "how long failures block new lookups")
	flags.DurationVar(&options.HTTPTimeout, "http-timeout", 0, "provider request timeout (default 10s)")
	flags.StringVar(&options.Cache, "cache", cacheDuckDB, "cache store ("+cacheDuckDB+", "+cacheMemory+")")
	flags.StringVar(&options.DbPath, "db-path", ".db", "directory holding the cache database")
	flags.BoolVar(&options.EnableHTTPTrace, "http-trace", false, "trace provider HTTP requests to stderr")
	flags.BoolVar(&options.EnableHTTPBodyTrace, "http-body-trace", false, "include response bodies in the HTTP trace")
}

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
