package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReaper struct {
	sweeps atomic.Int32
}

func (r *countingReaper) Sweep(time.Time) int {
	r.sweeps.Add(1)
	return 0
}

func (r *countingReaper) Len() int { return 0 }

func TestSessionSweeper_RunsOnSchedule(t *testing.T) {
	reaper := &countingReaper{}
	sweeper := NewSessionSweeper(reaper, "@every 1s")

	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return reaper.sweeps.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSessionSweeper_InvalidSchedule(t *testing.T) {
	sweeper := NewSessionSweeper(&countingReaper{}, "every now and then")

	assert.Error(t, sweeper.Start())
}
