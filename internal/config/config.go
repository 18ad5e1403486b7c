package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Directory and environment names shared by the installer and uninstaller.
const (
	// EnvDirName is the runtime environment root directory name.
	EnvDirName = "AIEnv"

	// LabDirName is the lab workspace (git clone) root directory name.
	LabDirName = "AILab"

	// CondaEnvName is the conda environment the installer creates.
	CondaEnvName = "aidev"

	// RequiredSpaceGB is the recommended free space for a full install.
	RequiredSpaceGB = 50

	// DefaultLabRepoURL is the upstream of the lab workspace clone.
	DefaultLabRepoURL = "https://github.com/mhollands/ailab-workspace.git"
)

// Download describes one fetchable component payload.
type Download struct {
	// URL is where the payload is fetched from
	URL string `yaml:"url"`

	// Checksum is the expected BLAKE3 hex digest of the payload, empty to skip verification
	Checksum string `yaml:"checksum,omitempty"`
}

// InstallConfig describes what the stack is made of. It ships with sane
// defaults and can be overridden by a YAML file in the installer home.
type InstallConfig struct {
	// Version is the stack release version stamped into status records
	Version string `yaml:"version"`

	// PythonVersion is the python version for the conda environment
	PythonVersion string `yaml:"pythonVersion"`

	// LabRepoURL is the git URL of the lab workspace
	LabRepoURL string `yaml:"labRepoURL"`

	// Packages is the list of conda packages installed in step 6
	Packages []string `yaml:"packages"`

	// Models is the list of Ollama models pulled in step 7
	Models []string `yaml:"models"`

	// Downloads maps component names (miniconda, vscode, ollama) to payloads
	Downloads map[string]Download `yaml:"downloads"`
}

// Default returns the built-in install config.
func Default() *InstallConfig {
	return &InstallConfig{
		Version:       "1.0.0",
		PythonVersion: "3.10",
		LabRepoURL:    DefaultLabRepoURL,
		Packages: []string{
			"numpy", "pandas", "matplotlib", "scikit-learn",
			"jupyter", "jupyterlab", "requests", "streamlit",
		},
		Models: []string{"llama3.2:3b", "phi3:mini"},
		Downloads: map[string]Download{
			"miniconda": {URL: "https://repo.anaconda.com/miniconda/Miniconda3-latest-Windows-x86_64.exe"},
			"vscode":    {URL: "https://update.code.visualstudio.com/latest/win32-x64-archive/stable"},
			"ollama":    {URL: "https://ollama.com/download/ollama-windows-amd64.zip"},
		},
	}
}

// Load reads the install config from path, falling back to defaults when the
// file does not exist. Fields absent from the file keep their default values.
func Load(path string) (*InstallConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
