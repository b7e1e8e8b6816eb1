package bridge

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/radiobridge/internal/radio"
)

// fakeDevice is an in-memory radio.Device with a queueable RX side
// and a capturing TX side.
type fakeDevice struct {
	mu         sync.Mutex
	frames     [][]byte
	emptyPolls int

	writes chan []byte
	ackOK  bool

	configureErr error
	addressErr   error

	configured bool
	localAddr  []byte
	peerAddr   []byte
	dataRate   radio.DataRate
	retransmit time.Duration
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		writes: make(chan []byte, 16),
		ackOK:  true,
	}
}

func (d *fakeDevice) queueFrame(frame []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, append([]byte(nil), frame...))
}

func (d *fakeDevice) emptyPollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.emptyPolls
}

// waitForPoll blocks until the worker has polled an empty RX queue.
// The startup flush exits on exactly that poll, so frames queued
// afterwards are guaranteed to reach the main loop.
func (d *fakeDevice) waitForPoll(t *testing.T) {
	t.Helper()
	deadline := time.After(time.Second)
	for d.emptyPollCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never polled an empty radio queue")
		case <-time.After(time.Millisecond):
		}
	}
}

func (d *fakeDevice) Configure(uint8, int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.configureErr != nil {
		return d.configureErr
	}
	d.configured = true
	return nil
}

func (d *fakeDevice) SetLocalAddress(addr []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.addressErr != nil {
		return d.addressErr
	}
	d.localAddr = append([]byte(nil), addr...)
	return nil
}

func (d *fakeDevice) SetPeerAddress(addr []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.addressErr != nil {
		return d.addressErr
	}
	d.peerAddr = append([]byte(nil), addr...)
	return nil
}

func (d *fakeDevice) SetDataRate(rate radio.DataRate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dataRate = rate
	return nil
}

func (d *fakeDevice) SetRetransmitDelay(delay time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.retransmit = delay
	return nil
}

func (d *fakeDevice) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ready := len(d.frames) > 0
	if !ready {
		d.emptyPolls++
	}
	return ready, nil
}

func (d *fakeDevice) Read(buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return errors.New("rx queue empty")
	}
	copy(buf, d.frames[0])
	d.frames = d.frames[1:]
	return nil
}

func (d *fakeDevice) Write(frame []byte) error {
	d.writes <- append([]byte(nil), frame...)
	return nil
}

func (d *fakeDevice) SendComplete(time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ackOK, nil
}

func (d *fakeDevice) Close() error { return nil }

func uplinkWorkerConfig(dev *fakeDevice, ch *ByteChannel, stats *Stats) RadioWorkerConfig {
	return RadioWorkerConfig{
		Device:       dev,
		Channel:      ch,
		Role:         RoleUplink,
		RFChannel:    90,
		PayloadSize:  32,
		LocalAddress: []byte("ABCDE"),
		SendTimeout:  100 * time.Millisecond,
		IdleDelay:    time.Millisecond,
		Stats:        stats,
	}
}

func TestRadioWorker_UplinkForwardsFrames(t *testing.T) {
	dev := newFakeDevice()
	ch := NewByteChannel(256)
	stats := &Stats{}
	w := NewRadioWorker(uplinkWorkerConfig(dev, ch, stats))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dev.waitForPoll(t)

	// 10-byte payload terminated early by a zero at offset 10.
	frame := make([]byte, 32)
	copy(frame, "field:17:9")
	dev.queueFrame(frame)

	buf := make([]byte, 32)
	n := ch.Receive(buf, time.Second)
	if n != 10 {
		t.Fatalf("Receive() = %d bytes, want effective length 10", n)
	}
	if !bytes.Equal(buf[:n], []byte("field:17:9")) {
		t.Errorf("forwarded bytes = %q, want %q", buf[:n], "field:17:9")
	}

	if got := stats.FramesReceived.Load(); got != 1 {
		t.Errorf("FramesReceived = %d, want 1", got)
	}
	if got := stats.BytesForwarded.Load(); got != 10 {
		t.Errorf("BytesForwarded = %d, want 10", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}

	if !bytes.Equal(dev.localAddr, []byte("ABCDE")) {
		t.Errorf("local address = %q, want ABCDE", dev.localAddr)
	}
	if dev.peerAddr != nil {
		t.Error("uplink worker programmed a peer address")
	}
}

func TestRadioWorker_UplinkFlushesStaleFrames(t *testing.T) {
	dev := newFakeDevice()
	stale := make([]byte, 32)
	copy(stale, "stale")
	dev.queueFrame(stale)
	dev.queueFrame(stale)

	ch := NewByteChannel(256)
	w := NewRadioWorker(uplinkWorkerConfig(dev, ch, &Stats{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dev.waitForPoll(t)

	fresh := make([]byte, 32)
	copy(fresh, "fresh")
	dev.queueFrame(fresh)

	buf := make([]byte, 32)
	n := ch.Receive(buf, time.Second)
	if !bytes.Equal(buf[:n], []byte("fresh")) {
		t.Errorf("first forwarded frame = %q, want the post-flush frame", buf[:n])
	}

	cancel()
	<-done
}

func TestRadioWorker_UplinkShortWriteIsFatal(t *testing.T) {
	dev := newFakeDevice()
	ch := NewByteChannel(4)
	stats := &Stats{}
	w := NewRadioWorker(uplinkWorkerConfig(dev, ch, stats))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dev.waitForPoll(t)

	frame := make([]byte, 32)
	copy(frame, "ten__bytes")
	dev.queueFrame(frame)

	select {
	case err := <-done:
		if !errors.Is(err, ErrShortWrite) {
			t.Errorf("Run() error = %v, want ErrShortWrite", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on short write")
	}

	if got := stats.FramesDropped.Load(); got != 1 {
		t.Errorf("FramesDropped = %d, want 1", got)
	}
}

func TestRadioWorker_DownlinkTransmitsZeroFilledFrames(t *testing.T) {
	dev := newFakeDevice()
	ch := NewByteChannel(256)
	stats := &Stats{}
	w := NewRadioWorker(RadioWorkerConfig{
		Device:              dev,
		Channel:             ch,
		Role:                RoleDownlink,
		RFChannel:           90,
		PayloadSize:         32,
		PeerAddress:         []byte("FGHIJ"),
		SendCompleteTimeout: 100 * time.Millisecond,
		IdleDelay:           time.Millisecond,
		Stats:               stats,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	msg := bytes.Repeat([]byte("x"), 20)
	if n := ch.Send(msg, time.Second); n != 20 {
		t.Fatalf("Send() = %d, want 20", n)
	}

	var written []byte
	select {
	case written = <-dev.writes:
	case <-time.After(time.Second):
		t.Fatal("worker never wrote to the radio")
	}

	if len(written) != 32 {
		t.Fatalf("radio write length = %d, want full 32-byte frame", len(written))
	}
	if !bytes.Equal(written[:20], msg) {
		t.Errorf("frame prefix = %q, want %q", written[:20], msg)
	}
	if !bytes.Equal(written[20:], make([]byte, 12)) {
		t.Errorf("frame tail = %v, want 12 zero bytes", written[20:])
	}

	ch.Close()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}

	if got := stats.FramesTransmitted.Load(); got != 1 {
		t.Errorf("FramesTransmitted = %d, want 1", got)
	}
	if !bytes.Equal(dev.peerAddr, []byte("FGHIJ")) {
		t.Errorf("peer address = %q, want FGHIJ", dev.peerAddr)
	}
}

func TestRadioWorker_DownlinkSendFailureIsNotFatal(t *testing.T) {
	dev := newFakeDevice()
	dev.ackOK = false
	ch := NewByteChannel(256)
	stats := &Stats{}
	w := NewRadioWorker(RadioWorkerConfig{
		Device:              dev,
		Channel:             ch,
		Role:                RoleDownlink,
		PayloadSize:         32,
		PeerAddress:         []byte("FGHIJ"),
		SendCompleteTimeout: 100 * time.Millisecond,
		Stats:               stats,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	ch.Send([]byte("first"), time.Second)
	<-dev.writes
	ch.Send([]byte("second"), time.Second)

	select {
	case <-dev.writes:
		// Loop survived the unacknowledged send.
	case <-time.After(time.Second):
		t.Fatal("worker stopped after a failed send")
	}

	ch.Close()
	<-done

	if got := stats.SendFailures.Load(); got < 1 {
		t.Errorf("SendFailures = %d, want at least 1", got)
	}
	if got := stats.FramesTransmitted.Load(); got != 0 {
		t.Errorf("FramesTransmitted = %d, want 0", got)
	}
}

func TestRadioWorker_DeviceAbsentIdlesUntilShutdown(t *testing.T) {
	dev := newFakeDevice()
	dev.configureErr = errors.New("no adapter on port")

	w := NewRadioWorker(uplinkWorkerConfig(dev, NewByteChannel(64), &Stats{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	if !errors.Is(err, ErrDeviceAbsent) {
		t.Errorf("Run() error = %v, want ErrDeviceAbsent", err)
	}
}

func TestRadioWorker_AppliesTuning(t *testing.T) {
	dev := newFakeDevice()
	ch := NewByteChannel(64)
	cfg := uplinkWorkerConfig(dev, ch, &Stats{})
	cfg.Tuning = true
	cfg.DataRate = radio.DataRate250Kbps
	cfg.RetransmitDelay = 500 * time.Microsecond
	w := NewRadioWorker(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dev.waitForPoll(t)
	cancel()
	<-done

	if dev.dataRate != radio.DataRate250Kbps {
		t.Errorf("data rate = %v, want 250kbps", dev.dataRate)
	}
	if dev.retransmit != 500*time.Microsecond {
		t.Errorf("retransmit delay = %v, want 500µs", dev.retransmit)
	}
}

func TestNewRadioWorker_DefaultsStats(t *testing.T) {
	dev := newFakeDevice()
	ch := NewByteChannel(256)
	cfg := uplinkWorkerConfig(dev, ch, nil)
	w := NewRadioWorker(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	dev.waitForPoll(t)

	frame := make([]byte, 32)
	copy(frame, "counted")
	dev.queueFrame(frame)

	buf := make([]byte, 32)
	if n := ch.Receive(buf, time.Second); n != 7 {
		t.Fatalf("Receive() = %d, want 7", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestEffectiveLength(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  int
	}{
		{"zero at offset 10", append([]byte("ten__bytes"), make([]byte, 22)...), 10},
		{"no terminator", bytes.Repeat([]byte{0xAA}, 32), 32},
		{"all zero", make([]byte, 32), 0},
		{"leading zero", append([]byte{0}, bytes.Repeat([]byte{1}, 31)...), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectiveLength(tt.frame); got != tt.want {
				t.Errorf("effectiveLength() = %d, want %d", got, tt.want)
			}
		})
	}
}
