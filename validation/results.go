package validation

import "fmt"

// Issue is a single diagnostic produced while validating an object
type Issue struct {
	Code    Code
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Code, i.Message)
}

// Results collects every diagnostic from one validation run, split by
// severity.  Issues appear in the order the checks produced them, which
// is deterministic for a given object.  A Results is append-only while
// validation runs and read-only once returned.
type Results struct {
	errors   []Issue
	warnings []Issue
	infos    []Issue
}

// Errors lists every OCFL specification violation found
func (r *Results) Errors() []Issue {
	return copied(r.errors)
}

// Warnings lists every violated recommendation found
func (r *Results) Warnings() []Issue {
	return copied(r.warnings)
}

// Infos lists observational diagnostics
func (r *Results) Infos() []Issue {
	return copied(r.infos)
}

// HasErrors is true if the object violates the OCFL specification
func (r *Results) HasErrors() bool {
	return len(r.errors) > 0
}

// Empty is true if validation found nothing to report at any severity
func (r *Results) Empty() bool {
	return len(r.errors) == 0 && len(r.warnings) == 0 && len(r.infos) == 0
}

func (r *Results) add(code Code, format string, args ...interface{}) {
	issue := Issue{Code: code, Message: fmt.Sprintf(format, args...)}
	switch code.Severity() {
	case Error:
		r.errors = append(r.errors, issue)
	case Warning:
		r.warnings = append(r.warnings, issue)
	default:
		r.infos = append(r.infos, issue)
	}
}

func copied(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	copy(out, issues)
	return out
}
