// Package commands implements the arctl CLI: a thin HTTP client over
// cmd/runapi's six routes, following the teacher's bb CLI's
// RootCmd/PersistentFlags/Execute shape (bb/cmd/bb/commands/root.go).
package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type GlobalConfig struct {
	ServerAddress string
}

var Global = &GlobalConfig{}

func init() {
	RootCmd.PersistentFlags().StringVarP(
		&Global.ServerAddress,
		"server",
		"s",
		"http://localhost:8080",
		"The base URL of the runapi server to talk to.")
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var RootCmd = &cobra.Command{
	Use:           "arctl",
	Short:         "arctl drives the run engine's HTTP API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func apiURL(path string) string {
	return Global.ServerAddress + "/api/v1" + path
}

// checkStatus returns a descriptive error if resp's status code isn't want,
// decoding the server's ErrorDocument body when present.
func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	var doc struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err == nil && doc.Message != "" {
		return fmt.Errorf("server returned %d %s: %s", resp.StatusCode, doc.Code, doc.Message)
	}
	return fmt.Errorf("server returned unexpected status %d", resp.StatusCode)
}
