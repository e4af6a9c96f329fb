// Package live renders the progress of one streaming analysis session
// as a Bubble Tea UI: spinner, progress bar, latest status, and the
// metric scores as they arrive.
package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/skillsetz/careercraft/pkg/stream"
)

// Controller runs the live UI and bridges session state snapshots into
// it. OnUpdate is safe to hand to a stream client as its update
// callback.
type Controller struct {
	updates   chan stream.State
	program   *tea.Program
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	cancel func()
}

// Start launches the live UI writing to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	updates := make(chan stream.State, 256)
	controller := &Controller{
		updates: updates,
		done:    make(chan struct{}),
	}
	model := NewModel(updates, opts, controller.invokeCancel)
	controller.program = tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	go func() {
		_, _ = controller.program.Run()
		close(controller.done)
	}()
	return controller
}

// OnUpdate enqueues a state snapshot without blocking the session.
// Intermediate snapshots may be dropped under backpressure; terminal
// ones wait until delivered, or until the UI has exited, so the UI
// always sees the outcome when it is still running.
func (c *Controller) OnUpdate(state stream.State) {
	if c == nil {
		return
	}
	if state.Terminal() {
		select {
		case c.updates <- state:
		case <-c.done:
		}
		return
	}
	select {
	case c.updates <- state:
	default:
	}
}

// BindCancel attaches the session's cancel to the UI's quit keys.
func (c *Controller) BindCancel(cancel func()) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}

// invokeCancel runs the bound cancel and reports whether one was
// bound.
func (c *Controller) invokeCancel() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Close signals the UI to stop once it has drained pending updates.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.updates)
	})
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.done
}
