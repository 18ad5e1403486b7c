package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/mhollands/envstack/internal/detect"
	"github.com/mhollands/envstack/internal/drives"
)

// chooseVolume asks the user to pick a target volume. The recommended volume
// is listed first.
func chooseVolume(volumes []drives.Volume, requiredGB int) (*drives.Volume, error) {
	recommended := drives.Recommend(volumes, requiredGB)

	var opts []huh.Option[string]
	if recommended != nil {
		opts = append(opts, huh.NewOption(volumeLabel(*recommended)+"  (recommended)", recommended.Path))
	}
	for _, v := range volumes {
		if recommended != nil && v.Path == recommended.Path {
			continue
		}
		opts = append(opts, huh.NewOption(volumeLabel(v), v.Path))
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("no volumes with enough free space (%d GB required)", requiredGB)
	}

	var picked string
	err := huh.NewSelect[string]().
		Title("Select the target volume").
		Options(opts...).
		Value(&picked).
		Run()
	if err != nil {
		return nil, err
	}
	return drives.FindByPath(volumes, picked), nil
}

func volumeLabel(v drives.Volume) string {
	return fmt.Sprintf("%s  [%s]  %.0f GB free of %.0f GB", v.Path, v.Kind, v.FreeGB(), v.TotalGB())
}

// Sentinel values for the candidate picker.
const (
	pickAll    = -1
	pickCancel = -2
)

// chooseCandidate asks the user which detected installation to uninstall.
// The return is an index into candidates, pickAll, or pickCancel.
func chooseCandidate(candidates []detect.Candidate) (int, error) {
	var opts []huh.Option[int]
	for i, c := range candidates {
		opts = append(opts, huh.NewOption(candidateLabel(c), i))
	}
	if len(candidates) > 1 {
		opts = append(opts, huh.NewOption("All of the above", pickAll))
	}
	opts = append(opts, huh.NewOption("Cancel", pickCancel))

	var picked int
	err := huh.NewSelect[int]().
		Title("Multiple installations found").
		Options(opts...).
		Value(&picked).
		Run()
	if err != nil {
		return pickCancel, err
	}
	return picked, nil
}

func candidateLabel(c detect.Candidate) string {
	label := fmt.Sprintf("%s installation", c.Type)
	switch {
	case c.EnvPath != "":
		label += "  " + c.EnvPath
	case c.LabPath != "":
		label += "  " + c.LabPath
	}
	if c.IsPrimary {
		label += "  (recorded)"
	}
	return label
}

// confirmUninstall shows the removal summary and asks for a yes/no.
func confirmUninstall(removeCount, preserveCount int) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Remove %s (%d preserved)?",
			PrintCount(removeCount, "entry", "entries"), preserveCount)).
		Affirmative("Remove").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// confirmResume asks whether to continue a previously interrupted install.
func confirmResume(step int) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Resume installation at step %d?", step)).
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}
