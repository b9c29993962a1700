package notifysvc

import (
	"sync"

	"github.com/trezcool/tododesk/core"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Recorder buffers notifications until they are drained.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

var _ core.Notifier = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(lvl Level, msg string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{Level: lvl, Message: msg})
	r.mu.Unlock()
}

// Drain returns the buffered notifications and empties the buffer.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	notices := r.notices
	r.notices = nil
	return notices
}
