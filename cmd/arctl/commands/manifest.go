package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(manifestCmd)
	RootCmd.AddCommand(stateCmd)
	RootCmd.AddCommand(artifactCmd)
}

var manifestCmd = &cobra.Command{
	Use:   "manifest <run_id>",
	Short: "Print a run's manifest (files consumed/produced, step provenance)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrintJSON(apiURL("/runs/" + args[0] + "/manifest"))
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <run_id>",
	Short: "Print a run's orchestrator state (step progress, current status)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrintJSON(apiURL("/runs/" + args[0] + "/state"))
	},
}

var artifactCmd = &cobra.Command{
	Use:   "artifact <run_id> <name>",
	Short: "Print a single named artifact produced by a run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAndPrintJSON(apiURL("/runs/" + args[0] + "/artifacts/" + args[1]))
	},
}
