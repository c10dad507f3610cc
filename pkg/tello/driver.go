package tello

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gobot.io/x/gobot/v2/platforms/dji/tello"
	"gocv.io/x/gocv"
)

// Driver is a Tello connection exposing the five calls the monitor needs:
// connect, battery, stream on, live frame, stream off.
type Driver struct {
	cfg    Config
	logger *slog.Logger
	drone  *tello.Driver

	connected   chan struct{}
	connectOnce sync.Once
	isConnected atomic.Bool

	battery      atomic.Int32
	batteryReady chan struct{}
	batteryOnce  sync.Once

	mu        sync.Mutex
	decoder   *Decoder
	keepAlive chan struct{}
	started   bool
	halted    bool
}

// NewDriver creates a driver. Nothing is sent until Connect.
func NewDriver(cfg Config, logger *slog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		cfg:          cfg,
		logger:       logger.With("component", "tello"),
		drone:        tello.NewDriver(cfg.Port),
		connected:    make(chan struct{}),
		batteryReady: make(chan struct{}),
	}, nil
}

// Connect opens the UDP link and waits for the drone to acknowledge it.
func (d *Driver) Connect(ctx context.Context) error {
	d.drone.On(tello.ConnectedEvent, func(interface{}) {
		d.connectOnce.Do(func() {
			d.isConnected.Store(true)
			close(d.connected)
		})
	})
	d.drone.On(tello.FlightDataEvent, func(data interface{}) {
		fd, ok := data.(*tello.FlightData)
		if !ok {
			return
		}
		d.battery.Store(int32(fd.BatteryPercentage))
		d.batteryOnce.Do(func() { close(d.batteryReady) })
	})
	d.drone.On(tello.VideoFrameEvent, func(data interface{}) {
		pkt, ok := data.([]byte)
		if !ok {
			return
		}
		d.mu.Lock()
		dec := d.decoder
		d.mu.Unlock()
		if dec == nil {
			return
		}
		if err := dec.Write(pkt); err != nil {
			d.logger.Debug("dropping video packet", "error", err)
		}
	})

	d.logger.Info("connecting to drone", "port", d.cfg.Port)
	if err := d.drone.Start(); err != nil {
		return fmt.Errorf("start drone link: %w", err)
	}
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()

	select {
	case <-d.connected:
		d.logger.Info("drone connected")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.cfg.ConnectTimeout):
		return fmt.Errorf("connect: %w", ErrTimeout)
	}
}

// Battery returns the last reported battery percentage, waiting for the
// first flight data packet if none has arrived yet.
func (d *Driver) Battery(ctx context.Context) (int, error) {
	if !d.isConnected.Load() {
		return 0, ErrNotConnected
	}

	select {
	case <-d.batteryReady:
		return int(d.battery.Load()), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(d.cfg.BatteryTimeout):
		return 0, fmt.Errorf("battery: %w", ErrTimeout)
	}
}

// StreamOn starts the decoder, asks the drone for video and waits for the
// first decoded frame.
func (d *Driver) StreamOn(ctx context.Context) error {
	if !d.isConnected.Load() {
		return ErrNotConnected
	}

	d.mu.Lock()
	if d.decoder != nil {
		d.mu.Unlock()
		return nil
	}
	dec, err := StartDecoder(d.cfg.FFmpegPath, d.cfg.FrameWidth, d.cfg.FrameHeight, d.logger)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.decoder = dec
	d.keepAlive = make(chan struct{})
	stop := d.keepAlive
	d.mu.Unlock()

	if err := d.drone.StartVideo(); err != nil {
		d.StreamOff()
		return fmt.Errorf("start video: %w", err)
	}
	if err := d.drone.SetVideoEncoderRate(tello.VideoBitRateAuto); err != nil {
		d.logger.Warn("set video bitrate failed", "error", err)
	}
	go d.requestKeyframes(stop)

	waitCtx, cancel := context.WithTimeout(ctx, d.cfg.FirstFrameTimeout)
	defer cancel()
	if err := dec.WaitFrame(waitCtx); err != nil {
		d.StreamOff()
		if ctx.Err() == nil && waitCtx.Err() != nil {
			return fmt.Errorf("first frame: %w", ErrTimeout)
		}
		return fmt.Errorf("first frame: %w", err)
	}

	d.logger.Info("video stream on")
	return nil
}

// requestKeyframes repeats the video start request until stop is closed.
func (d *Driver) requestKeyframes(stop <-chan struct{}) {
	ticker := time.NewTicker(d.cfg.KeyframeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := d.drone.StartVideo(); err != nil {
				d.logger.Debug("keyframe request failed", "error", err)
			}
		}
	}
}

// Frame returns the latest decoded frame in RGB order. It never blocks and
// may return the same picture twice when the link is slow.
func (d *Driver) Frame() (gocv.Mat, error) {
	d.mu.Lock()
	dec := d.decoder
	d.mu.Unlock()
	if dec == nil {
		return gocv.Mat{}, ErrNotStreaming
	}

	data := dec.Latest()
	if data == nil {
		return gocv.Mat{}, ErrNoFrame
	}
	view, err := gocv.NewMatFromBytes(d.cfg.FrameHeight, d.cfg.FrameWidth, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap frame: %w", err)
	}
	// view borrows data; hand out an OpenCV-owned copy.
	defer view.Close()
	return view.Clone(), nil
}

// StreamOff stops the keyframe requests and the decoder. Safe to call twice.
func (d *Driver) StreamOff() error {
	d.mu.Lock()
	dec, stop := d.decoder, d.keepAlive
	d.decoder, d.keepAlive = nil, nil
	d.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if dec == nil {
		return nil
	}
	d.logger.Info("video stream off", "frames", dec.Frames())
	return dec.Close()
}

// Close turns the stream off and halts the drone link.
func (d *Driver) Close() error {
	d.StreamOff()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted || !d.started {
		return nil
	}
	d.halted = true
	return d.drone.Halt()
}
