package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(listCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <run_id>",
	Short: "Print the job queue's record of a run (status, file_path, timestamps)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrintJSON(apiURL("/runs/" + args[0]))
	},
}

var (
	listLimit  int
	listOffset int
)

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum jobs to return (server default applies when 0).")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of jobs to skip.")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := apiURL("/runs")
		var params []string
		if listLimit > 0 {
			params = append(params, fmt.Sprintf("limit=%d", listLimit))
		}
		if listOffset > 0 {
			params = append(params, fmt.Sprintf("offset=%d", listOffset))
		}
		if len(params) > 0 {
			url += "?" + strings.Join(params, "&")
		}
		return getAndPrintJSON(url)
	},
}

func getAndPrintJSON(url string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", url, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(pretty))
	return nil
}
