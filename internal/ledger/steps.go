// Package ledger tracks durable installation progress.
//
// The ledger is the installer's source of truth for how far an installation
// got. It is persisted after every state change so a crash, power loss or
// Ctrl-C at any point leaves a record the next run can resume from.
package ledger

// TotalSteps is the number of installation steps.
const TotalSteps = 8

// LedgerFileName is the ledger file name under the environment root.
const LedgerFileName = "install_ledger.json"

// StepDefinition describes one installation step.
type StepDefinition struct {
	// Number is the 1-based step number
	Number int

	// Name is the short human-readable step name
	Name string

	// Description says what the step does
	Description string

	// Components are the sub-units of work tracked inside the step
	Components []string
}

// Definitions is the fixed table of installation steps, in order.
var Definitions = []StepDefinition{
	{
		Number:      1,
		Name:        "Check prerequisites",
		Description: "Verifying system and disk space",
		Components:  []string{"system_check", "disk_space", "internet"},
	},
	{
		Number:      2,
		Name:        "Create directory structure",
		Description: "Creating base directories",
		Components:  []string{"directories"},
	},
	{
		Number:      3,
		Name:        "Install Miniconda",
		Description: "Downloading and installing Python environment manager",
		Components:  []string{"miniconda_download", "miniconda_install", "conda_init"},
	},
	{
		Number:      4,
		Name:        "Create conda environment",
		Description: "Setting up the Python environment",
		Components:  []string{"conda_env_create", "conda_env_verify"},
	},
	{
		Number:      5,
		Name:        "Install VS Code",
		Description: "Downloading and installing portable VS Code",
		Components:  []string{"vscode_download", "vscode_extract", "vscode_config"},
	},
	{
		Number:      6,
		Name:        "Install Python packages",
		Description: "Installing AI and ML libraries using conda",
		Components:  []string{"python_packages"},
	},
	{
		Number:      7,
		Name:        "Install Ollama and models",
		Description: "Downloading and installing the local LLM engine",
		Components:  []string{"ollama_install", "ollama_models"},
	},
	{
		Number:      8,
		Name:        "Finalize installation",
		Description: "Creating activation scripts and startup files",
		Components:  []string{"activation_script", "project_templates", "readme", "install_info"},
	},
}

// StepByNumber returns the definition for step n.
func StepByNumber(n int) (StepDefinition, bool) {
	if n < 1 || n > TotalSteps {
		return StepDefinition{}, false
	}
	return Definitions[n-1], true
}
