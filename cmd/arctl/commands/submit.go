package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var submitRunConfigPath string

func init() {
	submitCmd.Flags().StringVar(&submitRunConfigPath, "run_config", "", "Path to a JSON file overriding run_config fields.")
	RootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit <file_ref>",
	Short: "Submit a file for processing and print its run_id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]interface{}{"file_ref": args[0]}
		if submitRunConfigPath != "" {
			raw, err := readRunConfig(submitRunConfigPath)
			if err != nil {
				return err
			}
			body["run_config"] = raw
		}
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}

		resp, err := httpClient.Post(apiURL("/runs"), "application/json", bytes.NewReader(buf))
		if err != nil {
			return fmt.Errorf("error calling submit: %w", err)
		}
		defer resp.Body.Close()
		if err := checkStatus(resp, http.StatusAccepted); err != nil {
			return err
		}

		var doc struct {
			RunID string `json:"run_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return fmt.Errorf("error decoding submit response: %w", err)
		}
		fmt.Println(doc.RunID)
		return nil
	},
}

func readRunConfig(path string) (json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return json.RawMessage(raw), nil
}
