package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/interfaces/di"
)

// NewDoctorCommand creates the doctor subcommand: a read-only health
// check of everything the apply engine depends on.
func NewDoctorCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check gcloud detection and persistence readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			handle, err := container.Bridge.Detect(cmd.Context())
			switch {
			case err == nil:
				fmt.Fprintln(out, okStyle.Render("✓")+" gcloud found: "+handle.Path)
				if handle.Version != "" {
					fmt.Fprintln(out, "  "+handle.Version)
				}
			case errors.Is(err, domain.ErrCLINotFound):
				fmt.Fprintln(out, failStyle.Render("✗")+" gcloud not found; profiles still apply their environment variables")
			default:
				fmt.Fprintf(out, "%s gcloud detection failed: %v\n", failStyle.Render("✗"), err)
			}

			if err := container.Env.CanPersist(domain.ScopeUser); err != nil {
				fmt.Fprintf(out, "%s user-scope persistence unavailable: %v\n", failStyle.Render("✗"), err)
			} else {
				fmt.Fprintln(out, okStyle.Render("✓")+" user-scope persistence available")
			}

			switch err := container.Env.CanPersist(domain.ScopeMachine); {
			case err == nil:
				fmt.Fprintln(out, okStyle.Render("✓")+" machine-scope persistence available (elevated)")
			case errors.Is(err, domain.ErrElevationRequired):
				fmt.Fprintln(out, skipStyle.Render("-")+" machine scope needs elevation")
			case errors.Is(err, domain.ErrMachineScopeUnsupported):
				fmt.Fprintln(out, skipStyle.Render("-")+" machine scope not supported on this platform")
			default:
				fmt.Fprintf(out, "%s machine-scope check failed: %v\n", failStyle.Render("✗"), err)
			}

			names, err := container.Profiles.Names()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %d profile(s) stored\n", okStyle.Render("✓"), len(names))
			return nil
		},
	}
}
