package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	statusFile string
	configFile string
)

// rootCmd is the root command for envstack.
var rootCmd = &cobra.Command{
	Use:     "envstack",
	Version: "dev",
	Short:   "Portable AI development stack installer",
	Long: `envstack installs a self-contained AI development environment onto a chosen
volume: Miniconda, a Python environment, VS Code, curated packages, Ollama
with local models, and a companion lab workspace.

Installation is tracked step by step in a ledger, so an interrupted run
resumes where it stopped. The uninstaller removes everything the installer
created while preserving what it did not.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&statusFile, "status-file", "", "Path to the status record (overrides discovery)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the install config file")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "installation",
		Title: "Installation:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "uninstallation",
		Title: "Uninstallation:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the envstack CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(os.Stdout, rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Root().Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(os.Stdout)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(os.Stdout)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(os.Stdout, true)
		},
	})
	rootCmd.AddCommand(completionCmd)

	installCmd.GroupID = "installation"
	resumeCmd.GroupID = "installation"
	statusCmd.GroupID = "installation"
	drivesCmd.GroupID = "installation"
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(drivesCmd)

	uninstallCmd.GroupID = "uninstallation"
	rootCmd.AddCommand(uninstallCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
