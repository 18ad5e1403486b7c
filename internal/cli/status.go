package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation status",
	Long:  `Display the unified status record, the detected installation and its step-by-step progress.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeLog, err := newEngine()
		if err != nil {
			return err
		}
		defer closeLog()

		rep := eng.Status()
		if jsonOutput {
			return outputJSON(rep)
		}

		PrintSection("Stack Status")
		PrintLabelValue("Environment", productLine(rep.Record.Env.Status, rep.Record.Env.InstallPath))
		if rep.Record.Env.Version != "" {
			PrintLabelValue("Version", rep.Record.Env.Version)
		}
		PrintLabelValue("Lab", productLine(rep.Record.Lab.Status, rep.Record.Lab.InstallPath))
		if rep.Record.Lab.GitRevision != "" {
			PrintLabelValue("Lab revision", rep.Record.Lab.GitRevision)
		}
		if rep.Record.Context.Volume != "" {
			PrintLabelValue("Volume", fmt.Sprintf("%s (%s, %s layout)",
				rep.Record.Context.Volume, rep.Record.Context.VolumeKind, rep.Record.Context.Mode))
		}

		info := eng.ResumeInfo()
		if info.MustCompleteUninstall {
			PrintWarning("An uninstall is in progress; installation is blocked until it completes.")
		} else if info.CanResume {
			PrintInfo(fmt.Sprintf("\nInstallation can resume at step %d. Run 'envstack resume'.", info.EnvLastStep+1))
		}

		if rep.Candidate != nil && rep.Candidate.Ledger != nil {
			printSteps(rep.Candidate.Ledger)
		}
		return nil
	},
}

func productLine(st status.ProductStatus, path string) string {
	line := string(st)
	if path != "" {
		line += "  " + path
	}
	return line
}

// printSteps renders the ledger as a step table.
func printSteps(l *ledger.Ledger) {
	PrintSection("Installation Steps")

	rows := make([][]string, 0, ledger.TotalSteps)
	for _, def := range ledger.Definitions {
		st := string(ledger.StatusPending)
		detail := ""
		if rec, ok := l.Steps[def.Number]; ok {
			st = string(rec.Status)
			if rec.Error != "" {
				detail = rec.Error
			} else if len(rec.CompletedComponents) > 0 && rec.Status != ledger.StatusCompleted {
				detail = strings.Join(rec.CompletedComponents, ", ")
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", def.Number),
			def.Name,
			st,
			detail,
		})
	}
	PrintTable([]string{"#", "Step", "Status", "Detail"}, rows)
}
