package domain

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwraps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindNotFound, KindOf(errors.Wrap(ErrCourseNotFound, "loading quiz")))
	assert.Equal(t, KindNotEnrolled, KindOf(fmt.Errorf("submit: %w", ErrNotEnrolled)))
	assert.Equal(t, KindInvalidInput, KindOf(Invalid("bad")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, errors.Is(errors.Wrap(ErrDuplicateAttempt, "ctx"), ErrDuplicateAttempt))
}
