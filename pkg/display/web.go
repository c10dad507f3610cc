package display

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"github.com/teslashibe/go-tello-monitor/pkg/hub"
	"gocv.io/x/gocv"
)

// WebConfig configures the browser display.
type WebConfig struct {
	Port     string // "0" picks a free port
	MaxWidth int    // Frames wider than this are scaled down, 0 = never
	Quality  int    // JPEG quality 1-100
}

// DefaultWebConfig returns the settings used by the CLI.
func DefaultWebConfig() WebConfig {
	return WebConfig{Port: "8181", MaxWidth: 960, Quality: 75}
}

// Status is served at /api/status and pushed to viewers as JSON.
type Status struct {
	Title      string                `json:"title"`
	Frames     int64                 `json:"frames"`
	Viewers    int                   `json:"viewers"`
	Detections []detection.Detection `json:"detections"`
	Largest    *detection.Detection  `json:"largest,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

type rangeInfo struct {
	detection.ColorRange
	Swatch string `json:"swatch"`
}

// Web streams display frames to browsers as JPEG over websocket. A viewer
// quits the monitor by sending "q" or POSTing /api/quit.
type Web struct {
	cfg    WebConfig
	app    *fiber.App
	frames *hub.Hub
	logger *slog.Logger
	ranges []rangeInfo

	shown atomic.Int64

	statusMu sync.RWMutex
	status   Status

	quit     chan struct{}
	quitOnce sync.Once

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// NewWeb builds the server. Call Start to begin listening.
func NewWeb(cfg WebConfig, ranges []detection.ColorRange, logger *slog.Logger) *Web {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultWebConfig().Quality
	}

	w := &Web{
		cfg:    cfg,
		frames: hub.New("frames", logger),
		logger: logger.With("component", "web"),
		quit:   make(chan struct{}),
		status: Status{Title: Title},
	}
	for _, r := range ranges {
		w.ranges = append(w.ranges, rangeInfo{ColorRange: r, Swatch: r.Swatch()})
	}
	w.frames.OnMessage = w.handleViewerMessage

	app := fiber.New(fiber.Config{
		AppName:               Title,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", w.handleIndex)

	api := app.Group("/api")
	api.Get("/status", w.handleStatus)
	api.Get("/ranges", w.handleRanges)
	api.Post("/quit", w.handleQuit)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/frames", websocket.New(w.handleFramesWS))

	w.app = app
	return w
}

// Start listens on the configured port and serves in the background.
func (w *Web) Start() error {
	ln, err := net.Listen("tcp", ":"+w.cfg.Port)
	if err != nil {
		return fmt.Errorf("display: listen on %s: %w", w.cfg.Port, err)
	}

	w.mu.Lock()
	w.ln = ln
	w.mu.Unlock()

	go w.frames.Run()
	go func() {
		if err := w.app.Listener(ln); err != nil {
			w.logger.Error("web server stopped", "error", err)
		}
	}()

	w.logger.Info("web display listening", "url", "http://"+ln.Addr().String())
	return nil
}

// Addr returns the listening address, or "" before Start.
func (w *Web) Addr() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ln == nil {
		return ""
	}
	return w.ln.Addr().String()
}

// Show encodes frame as JPEG and broadcasts it. Encoding is skipped when
// nobody is watching.
func (w *Web) Show(frame gocv.Mat) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	w.shown.Add(1)
	if w.frames.ClientCount() == 0 {
		return nil
	}

	data, err := w.encode(frame)
	if err != nil {
		return err
	}
	w.frames.BroadcastFrame(data)
	return nil
}

func (w *Web) encode(frame gocv.Mat) ([]byte, error) {
	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("display: convert frame: %w", err)
	}
	if w.cfg.MaxWidth > 0 && img.Bounds().Dx() > w.cfg.MaxWidth {
		img = imaging.Resize(img, w.cfg.MaxWidth, 0, imaging.Linear)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(w.cfg.Quality)); err != nil {
		return nil, fmt.Errorf("display: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Report records the latest detections and pushes them to viewers.
func (w *Web) Report(dets []detection.Detection) {
	w.statusMu.Lock()
	w.status.Detections = append(w.status.Detections[:0], dets...)
	w.status.Largest = nil
	if l := detection.Largest(dets); l != nil {
		largest := *l
		w.status.Largest = &largest
	}
	w.status.UpdatedAt = time.Now()
	w.statusMu.Unlock()

	if w.frames.ClientCount() > 0 {
		if err := w.frames.BroadcastStatus(w.snapshot()); err != nil {
			w.logger.Debug("status broadcast failed", "error", err)
		}
	}
}

// PollQuit waits up to timeout for a viewer to request a stop.
func (w *Web) PollQuit(timeout time.Duration) bool {
	select {
	case <-w.quit:
		return true
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.quit:
		return true
	case <-t.C:
		return false
	}
}

// Close disconnects viewers and shuts the server down.
func (w *Web) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.ln != nil
	w.mu.Unlock()

	w.frames.Stop()
	if !started {
		return nil
	}
	return w.app.ShutdownWithTimeout(2 * time.Second)
}

func (w *Web) requestQuit(reason string) {
	w.quitOnce.Do(func() {
		w.logger.Info("quit requested", "by", reason)
		close(w.quit)
	})
}

func (w *Web) snapshot() Status {
	w.statusMu.RLock()
	s := w.status
	s.Detections = append([]detection.Detection(nil), w.status.Detections...)
	w.statusMu.RUnlock()

	s.Frames = w.shown.Load()
	s.Viewers = w.frames.ClientCount()
	return s
}

func (w *Web) handleViewerMessage(clientID string, data []byte) {
	if strings.TrimSpace(string(data)) == string(QuitKey) {
		w.requestQuit("viewer " + clientID)
	}
}

func (w *Web) handleIndex(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString(indexHTML)
}

func (w *Web) handleStatus(c *fiber.Ctx) error {
	return c.JSON(w.snapshot())
}

func (w *Web) handleRanges(c *fiber.Ctx) error {
	return c.JSON(w.ranges)
}

func (w *Web) handleQuit(c *fiber.Ctx) error {
	w.requestQuit("http " + c.IP())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"quitting": true})
}

func (w *Web) handleFramesWS(c *websocket.Conn) {
	client := hub.NewClient(w.frames, c)
	client.Run()
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>HorsePower Tello Monitor</title></head>
<body style="background:#111;color:#eee;font-family:sans-serif">
<h3>HorsePower Tello Monitor</h3>
<img id="frame" style="max-width:100%">
<pre id="status"></pre>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/frames");
ws.binaryType = "blob";
let url;
ws.onmessage = (ev) => {
  if (typeof ev.data === "string") {
    document.getElementById("status").textContent = ev.data;
    return;
  }
  if (url) URL.revokeObjectURL(url);
  url = URL.createObjectURL(ev.data);
  document.getElementById("frame").src = url;
};
document.addEventListener("keydown", (ev) => { if (ev.key === "q") ws.send("q"); });
</script>
</body>
</html>
`

var (
	_ Sink     = (*Web)(nil)
	_ Reporter = (*Web)(nil)
)
