package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClock_AfterAdvancesAndRecords(t *testing.T) {
	start := time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)
	clk := NewMock(start)

	fired := <-clk.After(2 * time.Second)
	assert.Equal(t, start.Add(2*time.Second), fired)

	clk.Advance(time.Minute)
	<-clk.After(time.Second)

	assert.Equal(t, start.Add(time.Minute+3*time.Second), clk.Now())
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, clk.Waits())
}

func TestRealClock_Now(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()
	assert.False(t, got.Before(before))
}
