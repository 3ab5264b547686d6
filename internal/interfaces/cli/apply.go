package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/interfaces/di"
)

// applyFlags holds the command-line flags for apply.
type applyFlags struct {
	Machine    bool
	Purge      bool
	DeepPurge  bool
	SafeRevoke bool
}

// NewApplyCommand creates the apply subcommand.
func NewApplyCommand(container *di.Container) *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply [profile]",
		Short: "Switch the active profile",
		Long: `Apply a stored profile: configure the isolated gcloud context, resolve
the project identity, optionally purge cached credentials, and persist
the profile's environment variables durably.

With no argument, an interactive picker lists the stored profiles.

Examples:
  gsw apply work
  gsw apply personal --deep-purge
  gsw apply ci --machine`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				picked, err := runPicker(container)
				if err != nil {
					return err
				}
				if picked == "" {
					return nil // canceled
				}
				name = picked
			}
			return runApply(cmd, container, name, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.Machine, "machine", false, "Persist machine-wide (requires elevation)")
	cmd.Flags().BoolVar(&flags.Purge, "purge", false, "Remove the profile's gcloud configuration entry first")
	cmd.Flags().BoolVar(&flags.DeepPurge, "deep-purge", false, "Also remove cached credentials (ADC, legacy credentials, token databases)")
	cmd.Flags().BoolVar(&flags.SafeRevoke, "safe-revoke", false, "Revoke active credentials in the isolated context before reconfiguring")

	return cmd
}

func runApply(cmd *cobra.Command, container *di.Container, name string, flags *applyFlags) error {
	profile, err := container.Profiles.Get(name)
	if err != nil {
		return err
	}

	opts := domain.ApplyOptions{
		MachineWide: flags.Machine,
		Purge:       flags.Purge,
		DeepPurge:   flags.DeepPurge,
		SafeRevoke:  flags.SafeRevoke,
	}

	// The engine runs on its own goroutine; this loop just renders stage
	// progress as it streams in.
	out := cmd.OutOrStdout()
	done := container.Apply.ApplyAsync(cmd.Context(), profile, opts, func(o domain.StageOutcome) {
		fmt.Fprintln(out, renderStage(o))
	})
	result := <-done

	fmt.Fprintln(out, renderResult(result))
	if result.Err != nil {
		return result.Err
	}
	return nil
}
