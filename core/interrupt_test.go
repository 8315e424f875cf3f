package core

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInterruptController(t *testing.T) {
	var idle, busy int
	c := NewInterruptController(zerolog.Nop(),
		func() { idle++ },
		func(os.Signal) { busy++ },
	)
	t.Cleanup(func() { c.Close() })

	// Unarmed until the main loop reaches the line read.
	assert.False(t, c.Armed())

	c.Arm()
	assert.True(t, c.Armed())
	c.handle(os.Interrupt)
	assert.Equal(t, 1, idle)
	assert.Equal(t, 0, busy)

	// Disarmed for the duration of a child wait: the interrupt goes to
	// the child, never back into the loop.
	c.Disarm()
	assert.False(t, c.Armed())
	c.handle(os.Interrupt)
	assert.Equal(t, 1, idle)
	assert.Equal(t, 1, busy)

	// Rearming restores the idle behavior.
	c.Arm()
	c.handle(os.Interrupt)
	assert.Equal(t, 2, idle)
	assert.Equal(t, 1, busy)
}

func TestInterruptController_nilCallbacks(t *testing.T) {
	c := NewInterruptController(zerolog.Nop(), nil, nil)
	t.Cleanup(func() { c.Close() })

	c.Arm()
	c.handle(os.Interrupt)
	c.Disarm()
	c.handle(os.Interrupt)
}
