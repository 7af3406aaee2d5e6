package discord

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_Runs(t *testing.T) {
	s := newScheduler()
	var ran atomic.Int32

	assert.True(t, s.After(10*time.Millisecond, func() { ran.Add(1) }))
	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopCancelsPending(t *testing.T) {
	s := newScheduler()
	var ran atomic.Int32

	s.After(time.Hour, func() { ran.Add(1) })
	s.After(time.Hour, func() { ran.Add(1) })
	assert.Equal(t, 2, s.Pending())

	s.Stop()
	assert.Equal(t, 0, s.Pending())
	assert.False(t, s.After(time.Millisecond, func() { ran.Add(1) }))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, ran.Load())
}
