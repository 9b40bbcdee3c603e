package bridge

import (
	"github.com/dotfeel/dotbridged/internal/config"
)

// channelState carries the smoothing state for one device channel.
type channelState struct {
	ema    float64
	seeded bool

	// Bounded recent-sample ring, exposed to the monitor feed.
	history []float64
	next    int
	filled  bool
}

// conditioner smooths and quantizes inbound samples so sub-perceptible
// network jitter never reaches the bus. Smoothing first (EMA, seeded by the
// first sample), then rounding to the noise step.
type conditioner struct {
	alpha      float64
	step       int
	historyLen int
}

func newConditioner(cfg config.BridgeConfig) conditioner {
	c := conditioner{
		alpha:      cfg.SmoothingAlpha,
		step:       cfg.NoiseStep,
		historyLen: cfg.SampleHistory,
	}
	if c.alpha <= 0 || c.alpha > 1 {
		c.alpha = config.DefaultSmoothingAlpha
	}
	if c.step < 1 {
		c.step = config.DefaultNoiseStep
	}
	if c.historyLen < 1 {
		c.historyLen = config.DefaultSampleHistory
	}
	return c
}

// smooth feeds one sample through the EMA and records it in the history ring.
func (c *conditioner) smooth(st *channelState, sample float64) float64 {
	if st.history == nil {
		st.history = make([]float64, c.historyLen)
	}
	st.history[st.next] = sample
	st.next = (st.next + 1) % c.historyLen
	if st.next == 0 {
		st.filled = true
	}

	if !st.seeded {
		st.ema = sample
		st.seeded = true
	} else {
		st.ema = c.alpha*sample + (1-c.alpha)*st.ema
	}
	return st.ema
}

// conditionByte smooths a sample in the 0-255 domain and returns it clamped
// and quantized to the nearest noise-step multiple.
func (c *conditioner) conditionByte(st *channelState, sample float64) int {
	return clampInt(c.quantize(c.smooth(st, sample)), 0, 255)
}

// conditionFrequency smooths a Hz sample and rounds to the nearest whole Hz.
// Frequency hysteresis happens against the applied value in the store; the
// byte-domain quantization step would be too coarse for a 0-250Hz range.
func (c *conditioner) conditionFrequency(st *channelState, sample float64) int {
	return clampInt(int(c.smooth(st, sample)+0.5), 0, 250)
}

// quantize rounds to the nearest multiple of the noise step.
func (c *conditioner) quantize(v float64) int {
	if v < 0 {
		v = 0
	}
	n := int(v/float64(c.step) + 0.5)
	return n * c.step
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// History returns the recorded samples for a channel, oldest first.
func (st *channelState) History() []float64 {
	if st.history == nil {
		return nil
	}
	var out []float64
	if st.filled {
		out = append(out, st.history[st.next:]...)
	}
	out = append(out, st.history[:st.next]...)
	return out
}
