package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhollands/envstack/internal/config"
	"github.com/mhollands/envstack/internal/drives"
	"github.com/mhollands/envstack/internal/engine"
	"github.com/mhollands/envstack/internal/ledger"
	"github.com/mhollands/envstack/internal/status"
)

var (
	installStep         int
	installDrive        string
	installParentPath   string
	installMode         string
	installSkipInternet bool
	installYes          bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the AI development stack",
	Long: `Install the full stack onto a target volume.

Without --drive the volume with the most free space is recommended and the
choice is confirmed interactively. An interrupted installation resumes from
the last incomplete step; --step forces a specific starting step instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeLog, err := newEngine()
		if err != nil {
			return err
		}
		defer closeLog()

		vol, err := pickVolume()
		if err != nil {
			return err
		}

		req := engine.InstallRequest{
			StartStep:    installStep,
			Volume:       *vol,
			ParentPath:   installParentPath,
			Mode:         installMode,
			SkipInternet: installSkipInternet,
		}

		res, err := eng.Install(context.Background(), req)
		if err != nil {
			if errors.Is(err, engine.ErrUninstallInProgress) {
				PrintError("An uninstall is in progress. Complete it before installing.")
				return err
			}
			if res != nil && res.FailedStep > 0 {
				PrintError(fmt.Sprintf("Installation stopped at step %d", res.FailedStep))
				PrintInfo(fmt.Sprintf("Run 'envstack install' again to resume from step %d.", res.ResumeStep))
			}
			return err
		}

		if jsonOutput {
			return outputJSON(res)
		}
		PrintSuccess(fmt.Sprintf("Installation complete (%s)", PrintCount(len(res.Completed), "step", "steps")))
		PrintLabelValue("Environment", res.EnvRoot)
		PrintLabelValue("Lab", res.LabRoot)
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted installation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeLog, err := newEngine()
		if err != nil {
			return err
		}
		defer closeLog()

		info := eng.ResumeInfo()
		if info.MustCompleteUninstall {
			return engine.ErrUninstallInProgress
		}
		if !info.CanResume {
			PrintInfo("Nothing to resume.")
			return nil
		}

		step := info.EnvLastStep + 1
		if !installYes {
			ok, err := confirmResume(step)
			if err != nil {
				return err
			}
			if !ok {
				return engine.ErrCancelled
			}
		}

		rec := eng.Status().Record
		vol, err := resumeVolume(rec)
		if err != nil {
			return err
		}

		res, err := eng.Install(context.Background(), engine.InstallRequest{
			Volume: *vol,
			Mode:   rec.Context.Mode,
		})
		if err != nil {
			if res != nil && res.FailedStep > 0 {
				PrintError(fmt.Sprintf("Installation stopped again at step %d", res.FailedStep))
			}
			return err
		}

		PrintSuccess("Installation complete")
		PrintLabelValue("Environment", res.EnvRoot)
		return nil
	},
}

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List volumes and the recommended install target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		volumes, err := drives.List()
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(volumes)
		}

		recommended := drives.Recommend(volumes, config.RequiredSpaceGB)
		rows := make([][]string, 0, len(volumes))
		for _, v := range volumes {
			mark := ""
			if recommended != nil && v.Path == recommended.Path {
				mark = "recommended"
			}
			rows = append(rows, []string{
				v.Path,
				v.Kind,
				fmt.Sprintf("%.0f GB", v.FreeGB()),
				fmt.Sprintf("%.0f GB", v.TotalGB()),
				mark,
			})
		}
		PrintTable([]string{"Volume", "Kind", "Free", "Total", ""}, rows)
		return nil
	},
}

// pickVolume resolves the target volume from --drive, or interactively.
// With --yes and no --drive the recommendation is taken without asking.
func pickVolume() (*drives.Volume, error) {
	volumes, err := drives.List()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate volumes: %w", err)
	}
	if len(volumes) == 0 {
		return nil, fmt.Errorf("no usable volumes found")
	}

	if installDrive != "" {
		v := drives.FindByPath(volumes, installDrive)
		if v == nil {
			return nil, fmt.Errorf("no volume found at %s", installDrive)
		}
		if v.FreeGB() < config.RequiredSpaceGB {
			PrintWarning(fmt.Sprintf("%s has %.0f GB free; %d GB is recommended", v.Path, v.FreeGB(), config.RequiredSpaceGB))
		}
		return v, nil
	}

	if installYes {
		v := drives.Recommend(volumes, config.RequiredSpaceGB)
		if v == nil {
			return nil, fmt.Errorf("no volume has the required %d GB free", config.RequiredSpaceGB)
		}
		return v, nil
	}

	return chooseVolume(volumes, config.RequiredSpaceGB)
}

// resumeVolume re-resolves the volume a previous run recorded in the status
// context.
func resumeVolume(rec status.Record) (*drives.Volume, error) {
	volumes, err := drives.List()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate volumes: %w", err)
	}
	if rec.Context.Volume != "" {
		if v := drives.FindByPath(volumes, rec.Context.Volume); v != nil {
			return v, nil
		}
		return nil, fmt.Errorf("recorded volume %s is no longer mounted", rec.Context.Volume)
	}
	v := drives.Recommend(volumes, config.RequiredSpaceGB)
	if v == nil {
		return nil, fmt.Errorf("no volume has the required %d GB free", config.RequiredSpaceGB)
	}
	return v, nil
}

func init() {
	installCmd.Flags().IntVar(&installStep, "step", 0, fmt.Sprintf("Force installation to start at this step (1-%d)", ledger.TotalSteps))
	installCmd.Flags().StringVarP(&installDrive, "drive", "d", "", "Target volume path (skips the interactive picker)")
	installCmd.Flags().StringVar(&installParentPath, "parent-path", "", "Directory to create the installation under (defaults to the volume root)")
	installCmd.Flags().StringVarP(&installMode, "mode", "m", "", "Layout mode: nested (environment inside the lab) or sibling")
	installCmd.Flags().BoolVar(&installSkipInternet, "skip-internet", false, "Skip the internet connectivity check")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Answer yes to prompts and take the recommended volume")
	resumeCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Answer yes to prompts")
}
