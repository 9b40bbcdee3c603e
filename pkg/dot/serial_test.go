package dot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotfeel/dotbridged/internal/errors"
)

// stubPort scripts the blocking behavior of a serial port so the deadline
// paths can be driven without hardware.
type stubPort struct {
	gate chan struct{} // writes block here until the channel is closed

	mu        sync.Mutex
	started   int // port writes entered
	completed int // port writes finished
	active    int
	maxActive int
}

func (p *stubPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.started++
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()

	if p.gate != nil {
		<-p.gate
	}

	p.mu.Lock()
	p.active--
	p.completed++
	p.mu.Unlock()
	return len(b), nil
}

func (p *stubPort) Read([]byte) (int, error) { return 0, io.EOF }
func (p *stubPort) Close() error             { return nil }

func (p *stubPort) snapshot() (started, completed, maxActive int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started, p.completed, p.maxActive
}

func stubDriver(port io.ReadWriteCloser) *SerialDriver {
	d := NewSerialDriver("stub", 115200, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.port = port
	return d
}

func TestWriteWaitsOutAbandonedTransaction(t *testing.T) {
	port := &stubPort{gate: make(chan struct{})}
	d := stubDriver(port)

	ctx1, cancel1 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel1()
	err := d.Write(ctx1, 1, Target{Color: [3]uint8{1, 2, 3}})
	require.Error(t, err)
	assert.True(t, errors.IsWriteTimeout(err))

	// The first frame is still blocked inside the port. Release it shortly;
	// the retry must not reach the wire until it has drained.
	time.AfterFunc(30*time.Millisecond, func() { close(port.gate) })

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	require.NoError(t, d.Write(ctx2, 1, Target{Color: [3]uint8{4, 5, 6}}))

	started, completed, maxActive := port.snapshot()
	assert.Equal(t, 2, started)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, maxActive, "frames must never overlap on the wire")
}

func TestWriteTimesOutWhileBusBusy(t *testing.T) {
	port := &stubPort{gate: make(chan struct{})}
	t.Cleanup(func() { close(port.gate) })
	d := stubDriver(port)

	ctx1, cancel1 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel1()
	err := d.Write(ctx1, 1, Target{})
	require.Error(t, err)
	assert.True(t, errors.IsWriteTimeout(err))

	// The abandoned frame never completes, so the retry must give up at its
	// own deadline without sending anything.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	err = d.Write(ctx2, 1, Target{})
	require.Error(t, err)
	assert.True(t, errors.IsWriteTimeout(err))

	started, _, _ := port.snapshot()
	assert.Equal(t, 1, started, "second frame must not reach a busy bus")
}

func TestEncodeWriteFrame(t *testing.T) {
	frame := encodeWriteFrame(2, Target{
		Color:     [3]uint8{10, 20, 30},
		Intensity: 0.5,
		Frequency: 120,
	})

	assert.Len(t, frame, writeFrameLen)
	assert.Equal(t, uint8(frameWrite), frame[0])
	assert.Equal(t, uint8(2), frame[1])
	assert.Equal(t, []byte{10, 20, 30}, frame[2:5])
	assert.Equal(t, uint8(128), frame[5]) // 0.5 * 255, rounded

	// Frequency rides in 0.1Hz units, little-endian.
	freq := uint16(frame[6]) | uint16(frame[7])<<8
	assert.Equal(t, uint16(1200), freq)

	assert.Equal(t, checksum(frame[:writeFrameLen-1]), frame[writeFrameLen-1])
}

func TestClampFrequency(t *testing.T) {
	assert.Equal(t, 0.0, ClampFrequency(-10))
	assert.Equal(t, 250.0, ClampFrequency(999))
	assert.Equal(t, 120.5, ClampFrequency(120.5))
}

func TestClampIntensity(t *testing.T) {
	assert.Equal(t, 0.0, ClampIntensity(-0.1))
	assert.Equal(t, 1.0, ClampIntensity(1.7))
	assert.Equal(t, 0.25, ClampIntensity(0.25))
}

func TestChecksumXOR(t *testing.T) {
	assert.Equal(t, uint8(0), checksum([]byte{0xAA, 0xAA}))
	assert.Equal(t, uint8(0x01), checksum([]byte{0x03, 0x02}))
}
