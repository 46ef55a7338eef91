package scene

import "fmt"

// ValidationSeverity indicates whether a finding makes the scene unusable
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // scene cannot be exported
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Part     string             // offending part name
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] part %s: %s", e.Severity, e.Part, e.Message)
}

// Validate checks every part's solid and returns the findings in part
// order. An empty slice means the scene is exportable. It never mutates the
// scene.
func (s *Scene) Validate() []ValidationError {
	var errs []ValidationError
	for _, p := range s.parts {
		errs = append(errs, validatePart(p)...)
	}
	return errs
}

// HasErrors reports whether any finding has SeverityError.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validatePart(p Part) []ValidationError {
	var errs []ValidationError
	if err := p.Solid.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Part:     p.Name,
			Message:  err.Error(),
			Severity: SeverityError,
		})
	}
	if p.Solid.IsEmpty() {
		errs = append(errs, ValidationError{
			Part:     p.Name,
			Message:  "solid has no geometry",
			Severity: SeverityWarning,
		})
	}
	if p.Solid.FaceColors == nil && len(p.Solid.Faces) > 0 {
		errs = append(errs, ValidationError{
			Part:     p.Name,
			Message:  "solid is uncolored",
			Severity: SeverityWarning,
		})
	}
	return errs
}
