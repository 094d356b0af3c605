package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	var order []string
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(5*time.Second, func() { order = append(order, "c") })

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 2, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, start.Add(2500*time.Millisecond), c.Now())
}

func TestManual_StopPreventsCall(t *testing.T) {
	c := NewManual(time.Time{})
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Minute)

	assert.False(t, called)
	assert.Zero(t, c.Pending())
}

func TestManual_StopAfterFire(t *testing.T) {
	c := NewManual(time.Time{})
	timer := c.AfterFunc(0, func() {})
	c.Advance(0)

	assert.False(t, timer.Stop())
}

func TestManual_CallbackMayScheduleAgain(t *testing.T) {
	c := NewManual(time.Time{})
	n := 0
	c.AfterFunc(time.Second, func() {
		n++
		c.AfterFunc(time.Second, func() { n++ })
	})

	c.Advance(time.Second)
	assert.Equal(t, 1, n)
	c.Advance(time.Second)
	assert.Equal(t, 2, n)
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}
