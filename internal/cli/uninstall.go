package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/engine"
	"github.com/mhollands/envstack/internal/uninstall"
)

var (
	uninstallAuto     bool
	uninstallPath     string
	uninstallDryRun   bool
	uninstallList     bool
	uninstallKeep     bool
	uninstallBackup   bool
	uninstallFromStep int
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the AI development stack",
	Long: `Remove an installed stack: everything the installer created is deleted,
everything that existed beforehand is preserved.

Installations are found through the status record and a scan of all mounted
volumes; --path targets a specific installation instead. With --from-step N
only the artifacts of steps N through 8 are removed, leaving a partial
installation that the installer resumes at step N.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeLog, err := newEngine()
		if err != nil {
			return err
		}
		defer closeLog()

		ctx := context.Background()

		if uninstallFromStep > 0 {
			if err := eng.UninstallFromStep(ctx, uninstallPath, uninstallFromStep); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Reversed steps %d-8; run 'envstack install' to redo them", uninstallFromStep))
			return nil
		}

		candidates, warnings, err := eng.DetectInstallations(uninstallPath)
		if err != nil {
			if errors.Is(err, engine.ErrNoInstallation) {
				PrintInfo("No installations found.")
				return nil
			}
			return err
		}
		for _, w := range warnings {
			PrintWarning(w)
		}

		if uninstallList {
			return listCandidates(candidates)
		}

		targets, err := selectTargets(candidates)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			PrintInfo("Cancelled.")
			return nil
		}

		opts := uninstall.Options{
			KeepUserContent: uninstallKeep,
			Backup:          uninstallBackup,
			Auto:            uninstallAuto,
			DryRun:          uninstallDryRun,
		}

		for _, c := range targets {
			if err := uninstallOne(ctx, eng, c, opts); err != nil {
				return err
			}
		}
		return nil
	},
}

func uninstallOne(ctx context.Context, eng *engine.Engine, c *detect.Candidate, opts uninstall.Options) error {
	plan := eng.PlanUninstall(c, opts)
	printPlan(plan)

	if opts.DryRun {
		PrintInfo("Dry run: nothing was removed.")
		return nil
	}

	if !opts.Auto {
		ok, err := confirmUninstall(len(plan.ToRemove), len(plan.ToPreserve))
		if err != nil {
			return err
		}
		if !ok {
			return engine.ErrCancelled
		}
	}

	out, err := eng.Uninstall(ctx, c, opts)
	if err != nil {
		return err
	}

	res := out.Result
	if res.BackupDir != "" {
		PrintLabelValue("Backup", res.BackupDir)
	}
	if res.Failed > 0 {
		PrintWarning(fmt.Sprintf("%s could not be removed:", PrintCount(res.Failed, "entry", "entries")))
		PrintList(res.FailedPaths, 1)
	}
	for _, issue := range out.Issues {
		PrintWarning(issue.String())
	}
	if res.Failed == 0 && len(out.Issues) == 0 {
		PrintSuccess(fmt.Sprintf("Removed %s", PrintCount(res.Removed, "entry", "entries")))
	}
	return nil
}

// selectTargets narrows detected candidates down to what the user wants
// removed. One candidate, --auto or --path means no prompt.
func selectTargets(candidates []detect.Candidate) ([]*detect.Candidate, error) {
	if len(candidates) == 1 || uninstallAuto || uninstallPath != "" {
		return []*detect.Candidate{&candidates[0]}, nil
	}

	picked, err := chooseCandidate(candidates)
	if err != nil {
		return nil, err
	}
	switch picked {
	case pickCancel:
		return nil, nil
	case pickAll:
		targets := make([]*detect.Candidate, 0, len(candidates))
		for i := range candidates {
			targets = append(targets, &candidates[i])
		}
		return targets, nil
	default:
		return []*detect.Candidate{&candidates[picked]}, nil
	}
}

func listCandidates(candidates []detect.Candidate) error {
	if jsonOutput {
		return outputJSON(candidates)
	}

	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		primary := ""
		if c.IsPrimary {
			primary = "yes"
		}
		rows = append(rows, []string{
			string(c.Type),
			c.EnvPath,
			c.LabPath,
			string(c.Method),
			primary,
		})
	}
	PrintTable([]string{"Type", "Environment", "Lab", "Found via", "Recorded"}, rows)
	return nil
}

func printPlan(plan *uninstall.Plan) {
	PrintSection("Removal Plan")
	if plan.EnvRoot != "" {
		PrintLabelValue("Environment", plan.EnvRoot)
	}
	if plan.LabRoot != "" {
		PrintLabelValue("Lab", plan.LabRoot)
	}
	PrintLabelValue("To remove", PrintCount(len(plan.ToRemove), "entry", "entries"))
	if len(plan.ToPreserve) > 0 {
		PrintLabelValue("Preserved", PrintCount(len(plan.ToPreserve), "entry", "entries"))
		items := make([]string, 0, len(plan.ToPreserve))
		for _, e := range plan.ToPreserve {
			items = append(items, e.Path)
		}
		PrintList(items, 1)
	}
	if plan.CondaEnvName != "" {
		PrintLabelValue("Conda environment", fmt.Sprintf("%s (removed via conda, %s preserved)", plan.CondaEnvName, plan.CondaPath))
	}
	for _, w := range plan.Warnings {
		PrintWarning(w)
	}
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallAuto, "auto", false, "Run without confirmation prompts")
	uninstallCmd.Flags().StringVarP(&uninstallPath, "path", "p", "", "Uninstall the installation at this path")
	uninstallCmd.Flags().BoolVar(&uninstallDryRun, "dry-run", false, "Show the removal plan without removing anything")
	uninstallCmd.Flags().BoolVarP(&uninstallList, "list", "l", false, "List detected installations and exit")
	uninstallCmd.Flags().BoolVar(&uninstallKeep, "keep-user-content", false, "Preserve the Projects directory")
	uninstallCmd.Flags().BoolVar(&uninstallBackup, "backup", false, "Back up preserved user content before deletion")
	uninstallCmd.Flags().IntVar(&uninstallFromStep, "from-step", 0, "Reverse installation steps N-8 instead of a full uninstall")
}
