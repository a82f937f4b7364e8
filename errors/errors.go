package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDeclare  Phase = "declare"  // constructible registration
	PhaseValidate Phase = "validate" // chain validation
	PhaseInvoke   Phase = "invoke"   // construct/new/call entry points
	PhaseAllocate Phase = "allocate" // host allocation
	PhaseHost     Phase = "host"     // scripted and compiled initializers
	PhaseLoad     Phase = "load"     // manifest loading
	PhaseParse    Phase = "parse"    // manifest parsing
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateRegistration Kind = "duplicate_registration"
	KindBaseNotBridgeable     Kind = "base_not_bridgeable"
	KindBaseRejected          Kind = "base_rejected"
	KindUnregistered          Kind = "unregistered"
	KindNotBridgeable         Kind = "not_bridgeable"
	KindInstanceMismatch      Kind = "instance_mismatch"
	KindNotAnObject           Kind = "not_an_object"
	KindNotCallable           Kind = "not_callable"
	KindNoBase                Kind = "no_base"
	KindInitializer           Kind = "initializer"
	KindNotFound              Kind = "not_found"
	KindAllocation            Kind = "allocation"
	KindInvalidInput          Kind = "invalid_input"
	KindInvalidData           Kind = "invalid_data"
	KindUnsupported           Kind = "unsupported"
	KindTypeMismatch          Kind = "type_mismatch"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value         any
	Cause         error
	Phase         Phase
	Kind          Kind
	Constructible string
	Base          string
	Detail        string
	Path          []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Constructible != "" {
		b.WriteString(" at ")
		b.WriteString(e.Constructible)
	}

	if e.Base != "" {
		b.WriteString(" (base ")
		b.WriteString(e.Base)
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" in chain ")
		b.WriteString(strings.Join(e.Path, " -> "))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// KindOf returns the kind of the outermost structured error in err's chain,
// or the empty kind when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HasKind reports whether any structured error in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Constructible sets the constructible name
func (b *Builder) Constructible(name string) *Builder {
	b.err.Constructible = name
	return b
}

// Base sets the base constructible name
func (b *Builder) Base(name string) *Builder {
	b.err.Base = name
	return b
}

// Path sets the chain path, most derived first
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Registration-time constructors

// DuplicateRegistration creates an error for a name that is already registered
func DuplicateRegistration(name string) *Error {
	return &Error{
		Phase:         PhaseDeclare,
		Kind:          KindDuplicateRegistration,
		Constructible: name,
		Detail:        "constructible already registered",
	}
}

// BaseNotBridgeable creates an error for a bridging link into a pure base
func BaseNotBridgeable(name, base string, path []string) *Error {
	return &Error{
		Phase:         PhaseValidate,
		Kind:          KindBaseNotBridgeable,
		Constructible: name,
		Base:          base,
		Path:          path,
		Detail:        fmt.Sprintf("%s bridges into %s, which is not bridgeable", name, base),
	}
}

// BaseRejected creates an error for a declaration whose base was rejected
func BaseRejected(name, base string, cause error) *Error {
	return &Error{
		Phase:         PhaseValidate,
		Kind:          KindBaseRejected,
		Constructible: name,
		Base:          base,
		Detail:        "base was rejected at declaration",
		Cause:         cause,
	}
}

// Unregistered creates an error for an unknown constructible
func Unregistered(phase Phase, name string) *Error {
	return &Error{
		Phase:         phase,
		Kind:          KindUnregistered,
		Constructible: name,
		Detail:        fmt.Sprintf("constructible %q is not registered", name),
	}
}

// Invocation-time constructors

// NotBridgeable creates an error for construct on a pure constructible
func NotBridgeable(name string) *Error {
	return &Error{
		Phase:         PhaseInvoke,
		Kind:          KindNotBridgeable,
		Constructible: name,
		Detail:        "constructible cannot initialize an existing instance",
	}
}

// NotAnObject creates an error for a this argument that is not an object
func NotAnObject(name string, value any) *Error {
	return &Error{
		Phase:         PhaseInvoke,
		Kind:          KindNotAnObject,
		Constructible: name,
		Value:         value,
		Detail:        fmt.Sprintf("this must be an object, got %T", value),
	}
}

// InstanceMismatch creates an error for an instance built by an unrelated chain
func InstanceMismatch(name, terminal string, path []string) *Error {
	return &Error{
		Phase:         PhaseInvoke,
		Kind:          KindInstanceMismatch,
		Constructible: name,
		Path:          path,
		Detail:        fmt.Sprintf("instance was allocated for %s, whose chain does not include %s", terminal, name),
	}
}

// NotCallable creates an error for a plain call of a modern constructible
func NotCallable(name string) *Error {
	return &Error{
		Phase:         PhaseInvoke,
		Kind:          KindNotCallable,
		Constructible: name,
		Detail:        "modern constructibles cannot be invoked without construction",
	}
}

// NoBase creates an error for a super call from a root constructible
func NoBase(name string) *Error {
	return &Error{
		Phase:         PhaseInvoke,
		Kind:          KindNoBase,
		Constructible: name,
		Detail:        "super called on a constructible without a base",
	}
}

// Initializer wraps a failure raised by an initializer body
func Initializer(name string, cause error) *Error {
	return &Error{
		Phase:         PhaseInvoke,
		Kind:          KindInitializer,
		Constructible: name,
		Detail:        "initializer failed",
		Cause:         cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(name string, cause error) *Error {
	return &Error{
		Phase:         PhaseAllocate,
		Kind:          KindAllocation,
		Constructible: name,
		Detail:        "allocate instance",
		Cause:         cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// TypeMismatch creates a type mismatch error for a value crossing a host boundary
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("got %s, want %s", got, want),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a manifest loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
