package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/muesli/termenv"
)

var _ ports.Presenter = (*Console)(nil)

// Console is a ports.Presenter that writes notices to a terminal.
type Console struct {
	mu   sync.Mutex
	out  *termenv.Output
	busy bool
}

// NewConsole creates a Console writing to w. The colour profile is detected
// from w unless opts override it.
func NewConsole(w io.Writer, opts ...termenv.OutputOption) *Console {
	return &Console{out: termenv.NewOutput(w, opts...)}
}

// SetBusy shows a working indicator while a transformation is outstanding.
func (c *Console) SetBusy(busy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if busy && !c.busy {
		fmt.Fprintln(c.out, c.out.String("… working").Faint())
	}
	c.busy = busy
}

// Busy reports the last busy state.
func (c *Console) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Notify prints the notice, coloured by level.
func (c *Console) Notify(_ context.Context, n domain.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var prefix, color string
	switch n.Level {
	case domain.NoticeError:
		prefix, color = "✗", "#f87171"
	case domain.NoticeWarn:
		prefix, color = "!", "#fbbf24"
	default:
		prefix, color = "•", "#60a5fa"
	}
	fmt.Fprintln(c.out, c.out.String(prefix+" "+n.Message).Foreground(c.out.Color(color)))
}
