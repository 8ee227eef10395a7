package notebook

import "os/exec"

// NbconvertEngine runs notebooks through jupyter nbconvert --execute.
// Fallback for environments without papermill.
type NbconvertEngine struct {
	bin string
	// lookPath allows tests to override binary resolution
	lookPath func(string) (string, error)
}

// NewNbconvertEngine creates an nbconvert engine using the given jupyter
// binary path
func NewNbconvertEngine(bin string) *NbconvertEngine {
	return &NbconvertEngine{
		bin:      bin,
		lookPath: exec.LookPath,
	}
}

// Name returns the engine name
func (e *NbconvertEngine) Name() string {
	return "nbconvert"
}

// Available checks whether the jupyter binary can be found
func (e *NbconvertEngine) Available() bool {
	_, err := e.lookPath(e.bin)
	return err == nil
}

// BuildCommand generates the jupyter nbconvert invocation
func (e *NbconvertEngine) BuildCommand(input, output string) (string, []string) {
	return e.bin, []string{
		"nbconvert",
		"--to", "notebook",
		"--execute",
		input,
		"--output", output,
	}
}
