package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuplicateKeyError(t *testing.T) {
	err := fmt.Errorf("create user: %w", NewDuplicateKeyError("email"))

	assert.True(t, IsDuplicate(err))
	assert.False(t, IsNotFound(err))

	var de *DuplicateKeyError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "email", de.Field)
	assert.Equal(t, "duplicate value for field 'email'", de.Error())
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("server selection timeout")
	err := NewConnectionError(cause)

	assert.True(t, IsConnection(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "server selection timeout")
	assert.Equal(t, "database connection failed", (&ConnectionError{}).Error())
}

func TestNotFoundClassification(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", ErrNotFound)))
	assert.True(t, IsNotFound(ErrRecordNotFound))
	assert.True(t, IsRecordNotFound(fmt.Errorf("x: %w", ErrRecordNotFound)))
	assert.False(t, IsRecordNotFound(ErrNotFound))
}

func TestAsValidationErrors(t *testing.T) {
	single := NewValidationError("id", "must be a valid id", "zz")
	list, ok := AsValidationErrors(fmt.Errorf("wrap: %w", single))
	assert.True(t, ok)
	assert.Len(t, list, 1)
	assert.Equal(t, "id", list[0].Field)
	assert.True(t, IsValidation(single))

	multi := ValidationErrors{{Field: "a"}, {Field: "b"}}
	list, ok = AsValidationErrors(multi)
	assert.True(t, ok)
	assert.Len(t, list, 2)

	_, ok = AsValidationErrors(ErrNotFound)
	assert.False(t, ok)
	assert.False(t, IsValidation(ErrForbidden))
}
