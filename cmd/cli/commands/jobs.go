package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/briggon/dataplane/internal/types"
)

func init() {
	submitCmd.Flags().StringP("data", "d", "", "Inline JSON payload to submit")
	submitCmd.Flags().StringP("file", "f", "", "Path to a JSON payload file")
	submitCmd.Flags().StringP("priority", "p", "", "Job priority (low, normal, high)")

	statusCmd.Flags().StringP("id", "i", "", "Job ID to fetch")
	_ = statusCmd.MarkFlagRequired("id")
	statusCmd.Flags().BoolP("wait", "w", false, "Poll until the job reaches a terminal status")
	statusCmd.Flags().Duration("poll-timeout", 2*time.Minute, "Maximum time to wait with --wait")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a payload for processing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		inline, _ := cmd.Flags().GetString("data")
		file, _ := cmd.Flags().GetString("file")
		priority, _ := cmd.Flags().GetString("priority")

		var payload []byte
		switch {
		case inline != "" && file != "":
			return fmt.Errorf("flags --data and --file are mutually exclusive")
		case inline != "":
			payload = []byte(inline)
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read payload file: %w", err)
			}
			payload = data
		default:
			return fmt.Errorf("one of --data or --file is required")
		}

		if !json.Valid(payload) {
			return fmt.Errorf("payload is not valid JSON")
		}

		resp, err := apiClient.SubmitJob(context.Background(), types.SubmitJobRequest{
			Data:     json.RawMessage(payload),
			Priority: priority,
		})
		if err != nil {
			return fmt.Errorf("error submitting job: %w", err)
		}

		return printJSON(resp)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the status of a job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")
		wait, _ := cmd.Flags().GetBool("wait")
		pollTimeout, _ := cmd.Flags().GetDuration("poll-timeout")

		ctx := context.Background()

		resp, err := apiClient.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("error fetching job: %w", err)
		}

		if wait {
			deadline := time.Now().Add(pollTimeout)
			for !resp.Status.Terminal() {
				if time.Now().After(deadline) {
					return fmt.Errorf("job %s did not finish within %s", jobID, pollTimeout)
				}
				time.Sleep(time.Second)

				resp, err = apiClient.GetJob(ctx, jobID)
				if err != nil {
					return fmt.Errorf("error fetching job: %w", err)
				}
			}
		}

		return printJSON(resp)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the API server health",
	RunE: func(_ *cobra.Command, _ []string) error {
		resp, err := apiClient.HealthCheck(context.Background())
		if err != nil {
			return fmt.Errorf("error checking health: %w", err)
		}
		return printJSON(resp)
	},
}
