package notebook

import "fmt"

// Selector picks the notebook-runner engine for a run
type Selector struct {
	papermill Engine
	nbconvert Engine
}

// NewSelector creates a selector. resolveBin maps a tool name to the
// binary to execute (typically into the virtualenv's bin directory).
func NewSelector(resolveBin func(string) string) *Selector {
	return &Selector{
		papermill: NewPapermillEngine(resolveBin("papermill")),
		nbconvert: NewNbconvertEngine(resolveBin("jupyter")),
	}
}

// NewSelectorWithEngines creates a selector over explicit engines
func NewSelectorWithEngines(papermill, nbconvert Engine) *Selector {
	return &Selector{papermill: papermill, nbconvert: nbconvert}
}

// Select returns the engine for the given preference together with a
// human-readable reason. Auto prefers papermill and falls back to
// nbconvert when papermill is not installed.
func (s *Selector) Select(pref EngineType) (Engine, string, error) {
	switch pref {
	case EngineTypePapermill:
		if !s.papermill.Available() {
			return nil, "", fmt.Errorf("papermill requested but not available")
		}
		return s.papermill, "papermill explicitly configured", nil

	case EngineTypeNbconvert:
		if !s.nbconvert.Available() {
			return nil, "", fmt.Errorf("nbconvert requested but jupyter not available")
		}
		return s.nbconvert, "nbconvert explicitly configured", nil

	case EngineTypeAuto, "":
		if s.papermill.Available() {
			return s.papermill, "auto selection: papermill available", nil
		}
		if s.nbconvert.Available() {
			return s.nbconvert, "auto selection: papermill not available, falling back to nbconvert", nil
		}
		return nil, "", fmt.Errorf("no notebook runner available (tried papermill, jupyter)")

	default:
		return nil, "", fmt.Errorf("unknown notebook engine %q", pref)
	}
}
