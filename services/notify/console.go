package notifysvc

import (
	"fmt"
	"io"
	"sync"

	"github.com/trezcool/tododesk/core"
)

// Console prints notifications, one per line.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

var _ core.Notifier = (*Console)(nil)

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Success(msg string) { c.write("✓", msg) }
func (c *Console) Error(msg string)   { c.write("✗", msg) }

func (c *Console) write(mark, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, "%s %s\n", mark, msg)
}
