// Package commands implements the dataplane CLI.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briggon/dataplane/internal/api/v1/routes"
	"github.com/briggon/dataplane/pkg/api/v1/client"
)

// flag names
const (
	flagServerAddress = "server-address"
)

// environment variable names
const (
	envServerAddress = "DATAPLANE_SERVER_ADDRESS"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
)

// initClient initializes the API client
func initClient() error {
	var err error
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL,
		"Address of the dataplane API server (env: DATAPLANE_SERVER_ADDRESS)")

	RootCmd.AddCommand(submitCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(healthCmd)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dataplane",
	Short: "dataplane CLI - submit and track data-processing jobs",
	Long:  `dataplane CLI is a command line tool for submitting payloads to a dataplane service and polling job status.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > env var > default precedence for the server address.
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(envServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// printJSON renders a response value as indented JSON on stdout.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
