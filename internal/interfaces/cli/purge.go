package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/interfaces/di"
)

// NewPurgeCommand creates the standalone purge subcommand.
func NewPurgeCommand(container *di.Container) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "purge <profile>",
		Short: "Remove a profile's cached gcloud state",
		Long: `Remove cached gcloud state from a profile's isolated configuration
directory. Shallow mode (the default) removes only the configuration
entry, forcing gcloud to recreate it. Deep mode also removes
application-default credentials, legacy credential directories, and the
token databases.

The purge is confined to the profile's own directory: sibling profiles
sharing the same root are untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := container.Profiles.Get(args[0])
			if err != nil {
				return err
			}

			mode := domain.PurgeShallow
			if deep {
				mode = domain.PurgeDeep
			}

			configID := profile.ConfigID()
			report, err := container.Purger.Purge(container.Context.Dir(configID), configID, mode, profile.Account)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPurgeReport(report))
			return nil
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "Also remove cached credentials and token databases")

	return cmd
}
