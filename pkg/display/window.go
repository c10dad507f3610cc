package display

import (
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Window shows frames in a native highgui window. Pressing QuitKey while
// the window has focus requests a stop.
type Window struct {
	title string
	win   *gocv.Window

	mu     sync.Mutex
	closed bool
}

// NewWindow opens a titled window.
func NewWindow(title string) *Window {
	return &Window{title: title, win: gocv.NewWindow(title)}
}

// Show draws frame in the window.
func (w *Window) Show(frame gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.win.IMShow(frame)
	return nil
}

// PollQuit pumps window events for timeout (at least 1ms) and reports
// whether QuitKey was pressed.
func (w *Window) PollQuit(timeout time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return true
	}
	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.win.WaitKey(ms)&0xFF == QuitKey
}

// Close destroys the window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.win.Close()
}
