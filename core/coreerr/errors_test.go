package coreerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_FamilyMapsEveryCategoryCorrectly(t *testing.T) {
	assert.Equal(t, FamilyInput, KindMalformedRequest.Family())
	assert.Equal(t, FamilyState, KindMissingParent.Family())
	assert.Equal(t, FamilyExternal, KindLLMTimeout.Family())
	assert.Equal(t, FamilySecurity, KindManipulationCritical.Family())
	assert.Equal(t, FamilySystem, KindIOFailure.Family())
}

func TestKind_UnknownKindDefaultsToSystemFamily(t *testing.T) {
	assert.Equal(t, FamilySystem, Kind("NotARealKind").Family())
}

func TestNew_BuildsErrorWithoutCause(t *testing.T) {
	err := New(KindSchemaViolation, "missing field 'content'")
	assert.Equal(t, "SchemaViolation: missing field 'content'", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrap_IncludesCauseInMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindRedisUnavailable, "cache unreachable", cause)
	assert.Contains(t, err.Error(), "RedisUnavailable")
	assert.Contains(t, err.Error(), "cache unreachable")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, err.Unwrap())
}

func TestAs_ExtractsDirectCoreError(t *testing.T) {
	err := New(KindArgumentOutOfRange, "depth must be >= 1")
	ce, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindArgumentOutOfRange, ce.Kind)
}

func TestAs_ExtractsWrappedCoreError(t *testing.T) {
	inner := New(KindCorruptBlob, "checksum mismatch")
	outer := fmt.Errorf("loading node: %w", inner)
	ce, ok := As(outer)
	assert.True(t, ok)
	assert.Equal(t, KindCorruptBlob, ce.Kind)
}

func TestAs_ReturnsFalseForUnrelatedError(t *testing.T) {
	_, ok := As(errors.New("plain error"))
	assert.False(t, ok)
}
