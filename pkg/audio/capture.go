package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// FrameSamples is the fixed capture frame size, per channel.
const FrameSamples = 4096

// FrameFunc receives one captured PCM frame (16-bit LE, mono).
type FrameFunc func(pcm []byte)

// CaptureDevice is an open microphone streaming fixed-size frames to a
// callback. Open it with OpenCapture; Close is safe to call repeatedly.
type CaptureDevice struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu     sync.Mutex
	closed bool
}

// OpenCapture opens the default microphone at the capture format and starts
// delivering frames to onFrame. Frames arrive on malgo's audio thread; the
// callback must not block.
func OpenCapture(cfg Config, onFrame FrameFunc) (*CaptureDevice, error) {
	if onFrame == nil {
		return nil, fmt.Errorf("audio: frame callback must not be nil")
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	malgoCtx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init capture context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = FrameSamples

	c := &CaptureDevice{ctx: malgoCtx}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			frame := make([]byte, len(input))
			copy(frame, input)
			onFrame(frame)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, fmt.Errorf("audio: open microphone: %w", err)
	}
	c.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, fmt.Errorf("audio: start microphone: %w", err)
	}

	return c, nil
}

// Close stops the device and releases the capture context.
func (c *CaptureDevice) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		_ = c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
	}
}
