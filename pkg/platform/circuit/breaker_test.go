package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2), WithSuccessThreshold(2))

	open, opened := b.Failure()
	assert.False(t, open)
	assert.False(t, opened)

	assert.False(t, b.Success(), "a success while closed resets the count")
	open, _ = b.Failure()
	assert.False(t, open)

	open, opened = b.Failure()
	assert.True(t, open)
	assert.True(t, opened)
	assert.Equal(t, StateOpen, b.State())

	open, opened = b.Failure()
	assert.True(t, open)
	assert.False(t, opened, "only the tripping call reports the transition")

	assert.False(t, b.Success())
	_, _ = b.Failure()
	assert.False(t, b.Success(), "a failure restarts the success streak")
	assert.True(t, b.Success())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
}
