package notebook

// Engine represents a notebook-runner tool (papermill, nbconvert, etc.)
type Engine interface {
	// Name returns the engine name
	Name() string

	// Available checks whether the runner binary can be found
	Available() bool

	// BuildCommand generates the command and arguments that execute the
	// input notebook and write the executed copy to output
	BuildCommand(input, output string) (string, []string)
}

// EngineType represents the type of notebook-runner engine
type EngineType string

const (
	EngineTypeAuto      EngineType = "auto"
	EngineTypePapermill EngineType = "papermill"
	EngineTypeNbconvert EngineType = "nbconvert"
)
