package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Shared CLI flags
var (
	cfgFile  string
	port     string
	basePath string
)

// newRootCmd configures the root command with all subcommands and flags
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gateway",
		Short: "App store gateway - one JSON API over Google Play and the App Store",
		Long: `gateway serves a hypermedia JSON API over the Google Play and App Store
scraper services. Requests carrying os=ios are answered by the App Store,
everything else by Google Play.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	serveCmd.Flags().StringVar(&basePath, "base-path", "", "mount path of the API (overrides BASE_PATH)")
	serveCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "stores config file (overrides STORES_CONFIG)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}
