package notebook

import "os/exec"

// PapermillEngine runs notebooks through papermill. The executed copy
// papermill writes to the output path carries its own execution log.
type PapermillEngine struct {
	bin string
	// lookPath allows tests to override binary resolution
	lookPath func(string) (string, error)
}

// NewPapermillEngine creates a papermill engine using the given binary
// path (usually resolved inside the virtualenv)
func NewPapermillEngine(bin string) *PapermillEngine {
	return &PapermillEngine{
		bin:      bin,
		lookPath: exec.LookPath,
	}
}

// Name returns the engine name
func (e *PapermillEngine) Name() string {
	return "papermill"
}

// Available checks whether the papermill binary can be found
func (e *PapermillEngine) Available() bool {
	_, err := e.lookPath(e.bin)
	return err == nil
}

// BuildCommand generates the papermill invocation
func (e *PapermillEngine) BuildCommand(input, output string) (string, []string) {
	return e.bin, []string{input, output, "--log-output"}
}
