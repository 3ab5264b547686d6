package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gswitch.dev/cli/internal/core/domain"
	"gswitch.dev/cli/internal/interfaces/di"
)

// NewProfileCommand groups the profile management subcommands.
func NewProfileCommand(container *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage stored profiles",
	}

	cmd.AddCommand(newProfileListCommand(container))
	cmd.AddCommand(newProfileShowCommand(container))
	cmd.AddCommand(newProfileSaveCommand(container))
	cmd.AddCommand(newProfileDeleteCommand(container))

	return cmd
}

func newProfileListCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := container.Profiles.Names()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no profiles stored")
				return nil
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  (config: %s)\n", name, domain.Sanitize(name).ID)
			}
			return nil
		},
	}
}

func newProfileShowCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one profile with secrets redacted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := container.Profiles.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:            %s\n", p.Name)
			fmt.Fprintf(out, "config id:       %s\n", p.ConfigID())
			fmt.Fprintf(out, "google api key:  %s\n", redact(p.GoogleAPIKey))
			fmt.Fprintf(out, "gemini api key:  %s\n", redact(p.GeminiAPIKey))
			fmt.Fprintf(out, "project:         %s\n", p.Project)
			fmt.Fprintf(out, "project number:  %s\n", p.ProjectNumber)
			fmt.Fprintf(out, "account:         %s\n", p.Account)
			if p.ServiceAccountKeyFile != "" {
				fmt.Fprintf(out, "sa key file:     %s\n", p.ServiceAccountKeyFile)
			}
			for _, k := range domain.SortedKeys(p.ExtraVars) {
				fmt.Fprintf(out, "extra:           %s=%s\n", k, redact(p.ExtraVars[k]))
			}
			if p.MachineWide {
				fmt.Fprintln(out, "scope:           machine")
			}
			return nil
		},
	}
}

func newProfileSaveCommand(container *di.Container) *cobra.Command {
	var profile domain.Profile

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Create or update a profile",
		Long: `Create or update a stored profile. The profile name is free-form; it is
mapped to a lowercase alphanumeric gcloud configuration id automatically.

Examples:
  gsw profile save work --google-api-key AIza... --project my-proj --account me@example.com
  gsw profile save ci --gemini-api-key ... --extra DEPLOY_ENV=staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile.Name = args[0]
			if err := container.Profiles.Upsert(profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved profile %q (config id %s)\n",
				profile.Name, profile.ConfigID())
			return nil
		},
	}

	cmd.Flags().StringVar(&profile.GoogleAPIKey, "google-api-key", "", "Google API key")
	cmd.Flags().StringVar(&profile.GeminiAPIKey, "gemini-api-key", "", "Gemini API key")
	cmd.Flags().StringVar(&profile.Project, "project", "", "gcloud project id or number")
	cmd.Flags().StringVar(&profile.Account, "account", "", "gcloud account")
	cmd.Flags().StringVar(&profile.ServiceAccountKeyFile, "sa-key-file", "", "Service account key file")
	cmd.Flags().StringToStringVar(&profile.ExtraVars, "extra", nil, "Additional KEY=VALUE variables")
	cmd.Flags().BoolVar(&profile.MachineWide, "machine", false, "Apply machine-wide by default")

	return cmd
}

func newProfileDeleteCommand(container *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Profiles.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted profile %q\n", args[0])
			return nil
		},
	}
}
