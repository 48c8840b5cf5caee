package consolidate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindPersist, Step: StatePersisting1, Message: "persist redundancy elimination", Err: errors.New("disk full")}
	assert.Equal(t, "PERSIST_FAILED: persist redundancy elimination (step=persisting_1): disk full", err.Error())

	err = &Error{Kind: KindUnknownSchemaVersion, Step: StateCheckingCompatibility, Message: "unknown"}
	assert.Equal(t, "UNKNOWN_SCHEMA_VERSION: unknown (step=checking_compatibility)", err.Error())
}

func TestError_KindHelpers(t *testing.T) {
	cause := errors.New("boom")
	query := fmt.Errorf("wrapped: %w", &Error{Kind: KindQuery, Err: cause})
	schemaErr := &Error{Kind: KindUnknownSchemaVersion}
	persist := &Error{Kind: KindPersist}

	assert.True(t, IsQueryError(query))
	assert.False(t, IsPersistenceError(query))
	assert.ErrorIs(t, query, cause)

	assert.True(t, IsUnknownSchemaVersionError(schemaErr))
	assert.False(t, IsQueryError(schemaErr))

	assert.True(t, IsPersistenceError(persist))
	assert.False(t, IsUnknownSchemaVersionError(persist))

	assert.False(t, IsQueryError(nil))
	assert.False(t, IsQueryError(cause))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "deleting_merged_away", StateDeletingMergedAway.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePersisting2.Terminal())
}

func TestParseState(t *testing.T) {
	for s := StateIdle; s <= StateFailed; s++ {
		parsed, ok := ParseState(s.String())
		require.True(t, ok, s.String())
		assert.Equal(t, s, parsed)
	}

	_, ok := ParseState("persisting")
	assert.False(t, ok)
}
