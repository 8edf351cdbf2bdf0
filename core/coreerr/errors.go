// Package coreerr defines the closed error-kind taxonomy shared by every
// component of the Deep Tree Echo orchestration core.
package coreerr

import "fmt"

// Family groups related Kinds for propagation-policy decisions.
type Family string

const (
	FamilyInput    Family = "Input"
	FamilySecurity Family = "Security"
	FamilyState    Family = "State"
	FamilyExternal Family = "External"
	FamilySystem   Family = "System"
)

// Kind is one of the closed error kinds.
type Kind string

const (
	// Input
	KindMalformedRequest   Kind = "MalformedRequest"
	KindSchemaViolation    Kind = "SchemaViolation"
	KindArgumentOutOfRange Kind = "ArgumentOutOfRange"

	// State
	KindMissingParent      Kind = "MissingParent"
	KindHierarchyViolation Kind = "HierarchyViolation"
	KindVersionMismatch    Kind = "VersionMismatch"
	KindCorruptBlob        Kind = "CorruptBlob"

	// External
	KindLLMTimeout       Kind = "LLMTimeout"
	KindLLMRejected      Kind = "LLMRejected"
	KindRedisUnavailable Kind = "RedisUnavailable"

	// Security
	KindManipulationCritical           Kind = "ManipulationCritical"
	KindPrincipalLoyaltyBreach         Kind = "PrincipalLoyaltyBreach"
	KindValidatorOverrideIrrecoverable Kind = "ValidatorOverrideIrrecoverable"

	// System
	KindIOFailure         Kind = "IOFailure"
	KindOutOfMemory       Kind = "OutOfMemory"
	KindInternalInvariant Kind = "InternalInvariant"
)

var kindFamily = map[Kind]Family{
	KindMalformedRequest:               FamilyInput,
	KindSchemaViolation:                FamilyInput,
	KindArgumentOutOfRange:             FamilyInput,
	KindMissingParent:                  FamilyState,
	KindHierarchyViolation:             FamilyState,
	KindVersionMismatch:                FamilyState,
	KindCorruptBlob:                    FamilyState,
	KindLLMTimeout:                     FamilyExternal,
	KindLLMRejected:                    FamilyExternal,
	KindRedisUnavailable:               FamilyExternal,
	KindManipulationCritical:           FamilySecurity,
	KindPrincipalLoyaltyBreach:         FamilySecurity,
	KindValidatorOverrideIrrecoverable: FamilySecurity,
	KindIOFailure:                      FamilySystem,
	KindOutOfMemory:                    FamilySystem,
	KindInternalInvariant:              FamilySystem,
}

// Family reports which propagation family a Kind belongs to (§7).
func (k Kind) Family() Family {
	if f, ok := kindFamily[k]; ok {
		return f
	}
	return FamilySystem
}

// CoreError is the typed error every component returns for a recognized
// failure. Tool Dispatch renders it as the sigil+kind+message text line;
// everything else treats it like any other wrapped error.
type CoreError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Cause }

// New builds a CoreError with no underlying cause.
func New(kind Kind, message string) *CoreError {
	return &CoreError{Kind: kind, Message: message}
}

// Wrap builds a CoreError carrying an underlying cause.
func Wrap(kind Kind, message string, cause error) *CoreError {
	return &CoreError{Kind: kind, Message: message, Cause: cause}
}

// As extracts a *CoreError from err, if any is in its chain.
func As(err error) (*CoreError, bool) {
	ce, ok := err.(*CoreError)
	if ok {
		return ce, true
	}
	type unwrapper interface{ Unwrap() error }
	for u, ok := err.(unwrapper); ok; u, ok = err.(unwrapper) {
		err = u.Unwrap()
		if ce, ok := err.(*CoreError); ok {
			return ce, true
		}
	}
	return nil, false
}
