package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestartOnce(t *testing.T) {
	calls := make(chan struct{}, 2)
	r := NewRestarter(func() { calls <- struct{}{} })
	r.Delay = time.Millisecond
	assert.False(t, r.Requested())

	r.Restart()
	r.Restart()
	assert.True(t, r.Requested())

	select {
	case <-calls:
	case <-time.After(time.Second):
		require.Fail(t, "stop not called")
	}
	select {
	case <-calls:
		require.Fail(t, "stop called twice")
	case <-time.After(20 * time.Millisecond):
	}
}
