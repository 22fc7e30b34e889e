package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(logsCmd)
}

var logsCmd = &cobra.Command{
	Use:   "logs <run_id>",
	Short: "Print each step's recorded stdout/stderr tail for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := httpClient.Get(apiURL("/runs/" + args[0] + "/state"))
		if err != nil {
			return fmt.Errorf("error calling state: %w", err)
		}
		defer resp.Body.Close()
		if err := checkStatus(resp, http.StatusOK); err != nil {
			return err
		}

		var state struct {
			Steps map[string]struct {
				Status     string `json:"status"`
				StdoutTail string `json:"stdout_tail,omitempty"`
				StderrTail string `json:"stderr_tail,omitempty"`
			} `json:"steps"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
			return fmt.Errorf("error decoding state response: %w", err)
		}

		for name, step := range state.Steps {
			fmt.Printf("=== %s (%s) ===\n", name, step.Status)
			if step.StdoutTail != "" {
				fmt.Printf("-- stdout --\n%s\n", step.StdoutTail)
			}
			if step.StderrTail != "" {
				fmt.Printf("-- stderr --\n%s\n", step.StderrTail)
			}
		}
		return nil
	},
}
