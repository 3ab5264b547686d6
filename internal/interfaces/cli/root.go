package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gswitch.dev/cli/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand builds the base command.
func NewRootCommand(container *di.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gsw",
		Short: "gswitch - profile switcher for Google API keys and gcloud projects",
		Long: `gswitch maintains named profiles of API keys and gcloud project/account
selections and switches the active one without hand-editing environment
variables or shell startup files.

Every gcloud invocation runs against a private, per-profile configuration
directory, so switching profiles never contaminates another profile's
credentials or the user's default gcloud state.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
				container.Logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewApplyCommand(container))
	rootCmd.AddCommand(NewProfileCommand(container))
	rootCmd.AddCommand(NewPurgeCommand(container))
	rootCmd.AddCommand(NewClearCommand(container))
	rootCmd.AddCommand(NewStatusCommand(container))
	rootCmd.AddCommand(NewDoctorCommand(container))

	return rootCmd
}

func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// ExecuteContext runs the root command under ctx and maps failure to a
// non-zero exit.
func ExecuteContext(ctx context.Context, container *di.Container) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
