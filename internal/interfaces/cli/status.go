package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/interfaces/di"
)

// secretKeys are snapshot keys whose values are redacted in listings.
var secretKeys = map[string]struct{}{
	"GOOGLE_API_KEY": {},
	"GEMINI_API_KEY": {},
}

// NewStatusCommand creates the status subcommand.
func NewStatusCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the currently persisted environment and detected gcloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.Inspect.Inspect(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.CLIAvailable {
				fmt.Fprintf(out, "gcloud: %s\n", report.CLI.Path)
				if report.CLI.Version != "" {
					fmt.Fprintf(out, "version: %s\n", report.CLI.Version)
				}
			} else {
				fmt.Fprintln(out, "gcloud: not found")
			}
			if report.ActiveConfig != "" {
				fmt.Fprintf(out, "active configuration: %s", report.ActiveConfig)
				if report.ActiveProject != "" {
					fmt.Fprintf(out, " (project %s", report.ActiveProject)
					if report.ActiveAccount != "" {
						fmt.Fprintf(out, ", account %s", report.ActiveAccount)
					}
					fmt.Fprint(out, ")")
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "config root: %s\n", container.Context.Root)

			if len(report.Vars) == 0 {
				fmt.Fprintln(out, "persisted environment: empty")
				return nil
			}
			fmt.Fprintln(out, "persisted environment:")
			for _, k := range domain.SortedKeys(report.Vars) {
				v := report.Vars[k]
				if _, secret := secretKeys[k]; secret || strings.Contains(k, "KEY") {
					v = redact(v)
				}
				fmt.Fprintf(out, "  %s=%s\n", k, v)
			}
			return nil
		},
	}
}

// NewClearCommand creates the clear subcommand: persist the empty
// variable set, removing every key the engine manages.
func NewClearCommand(container *di.Container) *cobra.Command {
	var machine bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all persisted profile variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Apply.Clear(cmd.Context(), machine); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "persisted profile variables cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&machine, "machine", false, "Clear the machine scope (requires elevation)")

	return cmd
}
