package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchAuthorizationError_IsForbidden(t *testing.T) {
	err := fmt.Errorf("batch delete: %w", &BatchAuthorizationError{IDs: []string{"a", "b"}})

	assert.True(t, errors.Is(err, ErrorForbidden))
	assert.False(t, errors.Is(err, ErrorNotFound))

	var be *BatchAuthorizationError
	if assert.True(t, errors.As(err, &be)) {
		assert.Equal(t, []string{"a", "b"}, be.IDs)
	}
	assert.Contains(t, err.Error(), "a, b")
}
