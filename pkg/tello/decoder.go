package tello

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// Decoder uses a persistent ffmpeg process with pipe I/O to turn H.264 NAL
// units into raw rgb24 frames. Only the most recent frame is kept.
type Decoder struct {
	width, height int
	logger        *slog.Logger

	cmd   *exec.Cmd
	stdin io.WriteCloser
	inMu  sync.Mutex

	// Frame buffer
	latest  []byte
	frameMu sync.RWMutex
	frames  atomic.Int64

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	closed atomic.Bool
}

func newDecoder(width, height int, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		width:  width,
		height: height,
		logger: logger,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// StartDecoder launches ffmpeg reading H.264 on stdin and writing
// width x height rgb24 frames on stdout.
func StartDecoder(ffmpegPath string, width, height int, logger *slog.Logger) (*Decoder, error) {
	d := newDecoder(width, height, logger)

	cmd := exec.Command(ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "h264", // Input format
		"-i", "pipe:0", // Read from stdin
		"-pix_fmt", "rgb24", // Canonical channel order
		"-s", strconv.Itoa(width)+"x"+strconv.Itoa(height),
		"-f", "rawvideo",
		"pipe:1", // Write to stdout
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	go d.consume(stdout)

	d.logger.Info("video decoder started", "width", width, "height", height)
	return d, nil
}

// consume reads whole frames from r until it fails.
func (d *Decoder) consume(r io.Reader) {
	defer close(d.done)

	size := d.width * d.height * 3
	for {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			if !d.closed.Load() && !errors.Is(err, io.EOF) {
				d.logger.Warn("video decoder stopped", "error", err)
			}
			return
		}

		d.frameMu.Lock()
		d.latest = buf
		d.frameMu.Unlock()
		d.frames.Add(1)
		d.readyOnce.Do(func() { close(d.ready) })
	}
}

// Write feeds one video packet to the decoder.
func (d *Decoder) Write(pkt []byte) error {
	if d.closed.Load() || d.stdin == nil {
		return ErrDecoderClosed
	}
	d.inMu.Lock()
	defer d.inMu.Unlock()
	_, err := d.stdin.Write(pkt)
	return err
}

// Latest returns a copy of the most recently decoded frame, or nil.
func (d *Decoder) Latest() []byte {
	d.frameMu.RLock()
	defer d.frameMu.RUnlock()

	if d.latest == nil {
		return nil
	}

	frame := make([]byte, len(d.latest))
	copy(frame, d.latest)
	return frame
}

// Frames returns how many frames have been decoded.
func (d *Decoder) Frames() int64 {
	return d.frames.Load()
}

// WaitFrame blocks until the first frame is decoded.
func (d *Decoder) WaitFrame(ctx context.Context) error {
	select {
	case <-d.ready:
		return nil
	case <-d.done:
		if d.Frames() > 0 {
			return nil
		}
		return ErrDecoderClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the decoder.
func (d *Decoder) Close() error {
	if d.closed.Swap(true) {
		return nil
	}

	d.inMu.Lock()
	if d.stdin != nil {
		d.stdin.Close()
	}
	d.inMu.Unlock()

	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
		d.cmd.Wait()
	}
	return nil
}
