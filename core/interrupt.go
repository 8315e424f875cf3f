package core

import (
	"os"
	"os/signal"
	"sync"

	"github.com/rs/zerolog"
)

// InterruptController owns the shell's response to SIGINT. The shell is
// either idle (at or past the line read) or waiting on a child; the armed
// flag tracks which. While armed, an interrupt resets the idle shell back
// to a fresh prompt. While disarmed, it is forwarded to the outstanding
// child instead, so the parent never abandons a wait.
//
// The break key on a TTY never reaches the controller: the line editor
// runs the terminal in raw mode and reports it in-band as
// readline.ErrInterrupt. The controller covers process-level delivery
// (e.g. kill -INT).
type InterruptController struct {
	log zerolog.Logger

	// onIdle runs for interrupts that arrive while armed, onBusy for the
	// rest. Neither may block: they write a byte or forward a signal.
	onIdle func()
	onBusy func(os.Signal)

	mu    sync.Mutex
	armed bool

	sigs chan os.Signal
	done chan struct{}
}

// NewInterruptController installs the process-wide SIGINT handler. It is
// installed once, at shell startup; spawned children start with the
// default disposition and never inherit it.
func NewInterruptController(log zerolog.Logger, onIdle func(), onBusy func(os.Signal)) *InterruptController {
	c := &InterruptController{
		log:    log,
		onIdle: onIdle,
		onBusy: onBusy,
		sigs:   make(chan os.Signal, 1),
		done:   make(chan struct{}),
	}
	signal.Notify(c.sigs, os.Interrupt)
	go c.watch()
	return c
}

// Arm marks the shell as idle: interrupts reset it to a fresh prompt.
// Rearmed by the main loop every iteration.
func (c *InterruptController) Arm() { c.setArmed(true) }

// Disarm marks the shell as waiting on a child: interrupts are forwarded
// to the child for the full duration of the wait.
func (c *InterruptController) Disarm() { c.setArmed(false) }

// Armed reports the current state.
func (c *InterruptController) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Close uninstalls the handler and stops the watcher.
func (c *InterruptController) Close() error {
	signal.Stop(c.sigs)
	close(c.done)
	return nil
}

func (c *InterruptController) setArmed(armed bool) {
	c.mu.Lock()
	c.armed = armed
	c.mu.Unlock()
}

func (c *InterruptController) watch() {
	for {
		select {
		case sig := <-c.sigs:
			c.handle(sig)
		case <-c.done:
			return
		}
	}
}

func (c *InterruptController) handle(sig os.Signal) {
	if c.Armed() {
		c.log.Debug().Msg("interrupt while idle, resetting prompt")
		if c.onIdle != nil {
			c.onIdle()
		}
		return
	}

	c.log.Debug().Msg("interrupt while waiting on child, forwarding")
	if c.onBusy != nil {
		c.onBusy(sig)
	}
}
