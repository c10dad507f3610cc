package source

import (
	"context"
	"errors"
	"testing"

	"github.com/teslashibe/go-tello-monitor/pkg/detection"
	"gocv.io/x/gocv"
)

// fakeVehicle records the black-box calls made by the remote source.
type fakeVehicle struct {
	calls      []string
	connectErr error
	streamErr  error
	frameErr   error
	closed     int
}

func (f *fakeVehicle) Connect(context.Context) error {
	f.calls = append(f.calls, "connect")
	return f.connectErr
}

func (f *fakeVehicle) Battery(context.Context) (int, error) {
	f.calls = append(f.calls, "battery")
	return 87, nil
}

func (f *fakeVehicle) StreamOn(context.Context) error {
	f.calls = append(f.calls, "streamon")
	return f.streamErr
}

func (f *fakeVehicle) Frame() (gocv.Mat, error) {
	f.calls = append(f.calls, "frame")
	if f.frameErr != nil {
		return gocv.Mat{}, f.frameErr
	}
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 4, 4, gocv.MatTypeCV8UC3), nil
}

func (f *fakeVehicle) StreamOff() error {
	f.calls = append(f.calls, "streamoff")
	return nil
}

func (f *fakeVehicle) Close() error {
	f.closed++
	return nil
}

func equalCalls(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRemote_Lifecycle(t *testing.T) {
	tests := []struct {
		name       string
		connect    bool
		owned      bool
		wantCalls  []string
		wantClosed int
	}{
		{
			name:       "creates and connects",
			connect:    true,
			owned:      true,
			wantCalls:  []string{"connect", "battery", "streamon", "frame", "streamoff"},
			wantClosed: 1,
		},
		{
			name:       "existing handle",
			connect:    false,
			owned:      false,
			wantCalls:  []string{"battery", "streamon", "frame", "streamoff"},
			wantClosed: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeVehicle{}
			src, err := NewRemote(context.Background(), v, tc.connect, tc.owned, nil)
			if err != nil {
				t.Fatalf("NewRemote: %v", err)
			}

			frame, err := src.Acquire()
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			frame.Close()

			src.Close()
			src.Close()

			if !equalCalls(v.calls, tc.wantCalls) {
				t.Errorf("calls: got %v, want %v", v.calls, tc.wantCalls)
			}
			if v.closed != tc.wantClosed {
				t.Errorf("vehicle closes: got %d, want %d", v.closed, tc.wantClosed)
			}
			if _, err := src.Acquire(); !errors.Is(err, ErrClosed) {
				t.Errorf("Acquire after Close: got %v, want ErrClosed", err)
			}
		})
	}
}

func TestRemote_Failures(t *testing.T) {
	boom := errors.New("boom")

	if _, err := NewRemote(context.Background(), &fakeVehicle{connectErr: boom}, true, true, nil); !errors.Is(err, boom) {
		t.Errorf("connect failure: got %v, want boom", err)
	}
	if _, err := NewRemote(context.Background(), &fakeVehicle{streamErr: boom}, true, true, nil); !errors.Is(err, boom) {
		t.Errorf("stream failure: got %v, want boom", err)
	}

	src, err := NewRemote(context.Background(), &fakeVehicle{frameErr: boom}, false, false, nil)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer src.Close()
	if _, err := src.Acquire(); !errors.Is(err, boom) {
		t.Errorf("frame failure: got %v, want boom", err)
	}
}

func TestRemote_ChannelOrder(t *testing.T) {
	src, err := NewRemote(context.Background(), &fakeVehicle{}, false, false, nil)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer src.Close()

	if NeedsReorder(src) {
		t.Error("remote frames are already canonical RGB")
	}
}

func TestMockSource(t *testing.T) {
	a := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 1, 1, 0), 2, 2, gocv.MatTypeCV8UC3)
	b := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(2, 2, 2, 0), 2, 2, gocv.MatTypeCV8UC3)
	boom := errors.New("boom")

	m := NewMockSource([]gocv.Mat{a, b}, WithFailure(4, boom))

	want := []uint8{1, 2, 2}
	for i, w := range want {
		frame, err := m.Acquire()
		if err != nil {
			t.Fatalf("Acquire %d: %v", i+1, err)
		}
		if got := frame.GetVecbAt(0, 0)[0]; got != w {
			t.Errorf("Acquire %d: got %d, want %d", i+1, got, w)
		}
		frame.Close()
	}

	if _, err := m.Acquire(); !errors.Is(err, boom) {
		t.Errorf("Acquire 4: got %v, want boom", err)
	}
	if got := m.Acquires(); got != 4 {
		t.Errorf("Acquires: got %d, want 4", got)
	}

	m.Close()
	if got := m.Closes(); got != 1 {
		t.Errorf("Closes: got %d, want 1", got)
	}
	if !NeedsReorder(m) {
		t.Error("default mock order is BGR and needs a reorder")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default camera", DefaultConfig(), false},
		{"negative device", Config{Backend: BackendCamera, CameraDevice: -1}, true},
		{"tello defaults", func() Config { c := DefaultConfig(); c.Backend = BackendTello; return c }(), false},
		{"tello broken config", Config{Backend: BackendTello}, true},
		{"tello existing vehicle", Config{Backend: BackendTello, Vehicle: &fakeVehicle{}}, false},
		{"mock", Config{Backend: BackendMock}, false},
		{"unknown", Config{Backend: "kinect"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNew_MockAndExistingVehicle(t *testing.T) {
	src, err := New(context.Background(), Config{Backend: BackendMock}, nil)
	if err != nil {
		t.Fatalf("New(mock): %v", err)
	}
	frame, err := src.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if frame.Rows() != 480 || frame.Cols() != 640 {
		t.Errorf("demo frame: got %dx%d, want 640x480", frame.Cols(), frame.Rows())
	}
	frame.Close()
	src.Close()

	v := &fakeVehicle{}
	remote, err := New(context.Background(), Config{Backend: BackendTello, Vehicle: v}, nil)
	if err != nil {
		t.Fatalf("New(tello, vehicle): %v", err)
	}
	if remote.ChannelOrder() != detection.OrderRGB {
		t.Errorf("remote order: got %s, want rgb", remote.ChannelOrder())
	}
	remote.Close()
	if v.closed != 0 {
		t.Error("caller-supplied vehicle must not be closed")
	}
}

func TestCamera_Open(t *testing.T) {
	cam, err := NewCamera(0, nil)
	if err != nil {
		t.Skip("no capture device available, skipping test")
	}
	defer cam.Close()

	frame, err := cam.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer frame.Close()
	if frame.Channels() != 3 {
		t.Errorf("channels: got %d, want 3", frame.Channels())
	}
}
