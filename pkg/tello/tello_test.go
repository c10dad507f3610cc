package tello

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestDecoder_KeepsLatestFrame(t *testing.T) {
	const w, h = 2, 2
	size := w * h * 3

	first := bytes.Repeat([]byte{1}, size)
	second := bytes.Repeat([]byte{2}, size)
	partial := []byte{3, 3, 3} // trailing bytes of an incomplete frame

	stream := append(append(append([]byte{}, first...), second...), partial...)

	d := newDecoder(w, h, nil)
	go d.consume(bytes.NewReader(stream))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.WaitFrame(ctx); err != nil {
		t.Fatalf("WaitFrame: %v", err)
	}
	<-d.done

	if got := d.Frames(); got != 2 {
		t.Errorf("Frames: got %d, want 2", got)
	}
	if got := d.Latest(); !bytes.Equal(got, second) {
		t.Errorf("Latest: got %v, want %v", got, second)
	}
}

func TestDecoder_LatestIsCopy(t *testing.T) {
	d := newDecoder(1, 1, nil)
	go d.consume(bytes.NewReader([]byte{10, 20, 30}))
	<-d.done

	frame := d.Latest()
	frame[0] = 99
	if got := d.Latest(); got[0] != 10 {
		t.Errorf("Latest shares storage: got %d, want 10", got[0])
	}
}

func TestDecoder_WaitFrameNoData(t *testing.T) {
	d := newDecoder(4, 4, nil)
	go d.consume(bytes.NewReader(nil))

	err := d.WaitFrame(context.Background())
	if !errors.Is(err, ErrDecoderClosed) {
		t.Errorf("WaitFrame: got %v, want ErrDecoderClosed", err)
	}
	if d.Latest() != nil {
		t.Error("Latest should be nil before any frame")
	}
}

func TestDecoder_WriteAfterClose(t *testing.T) {
	d := newDecoder(1, 1, nil)
	d.Close()
	if err := d.Write([]byte{0}); !errors.Is(err, ErrDecoderClosed) {
		t.Errorf("Write: got %v, want ErrDecoderClosed", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no port", func(c *Config) { c.Port = "" }, true},
		{"zero width", func(c *Config) { c.FrameWidth = 0 }, true},
		{"no connect timeout", func(c *Config) { c.ConnectTimeout = 0 }, true},
		{"no ffmpeg", func(c *Config) { c.FFmpegPath = "" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	cfg := DefaultConfig()
	if got := cfg.FrameSize(); got != StreamWidth*StreamHeight*3 {
		t.Errorf("FrameSize: got %d, want %d", got, StreamWidth*StreamHeight*3)
	}
}

func TestDriver_RequiresConnect(t *testing.T) {
	d, err := NewDriver(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	defer d.Close()

	if _, err := d.Battery(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Battery: got %v, want ErrNotConnected", err)
	}
	if err := d.StreamOn(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("StreamOn: got %v, want ErrNotConnected", err)
	}
	if _, err := d.Frame(); !errors.Is(err, ErrNotStreaming) {
		t.Errorf("Frame: got %v, want ErrNotStreaming", err)
	}
	if err := d.StreamOff(); err != nil {
		t.Errorf("StreamOff without stream: %v", err)
	}
}
