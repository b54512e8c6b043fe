package gameboy

import "github.com/oakmoss/gbcore/pkg/audio"

// Option configures a GameBoy at construction time, following the
// functional-options pattern so the zero-value-heavy parts of the
// system (audio wiring, debug taps) stay optional without a sprawling
// constructor signature.
type Option func(*config)

type config struct {
	producer          audio.Producer
	tap               audio.Producer
	iOSMixer          bool
	desktopSaveTiming bool
}

// WithAudioProducer supplies the sink the APU pushes mixed stereo
// samples into. Without one, audio output is silently discarded.
func WithAudioProducer(p audio.Producer) Option {
	return func(c *config) { c.producer = p }
}

// WithWaveformTap supplies a second sink that receives the same sample
// stream, for host-side waveform visualization.
func WithWaveformTap(p audio.Producer) Option {
	return func(c *config) { c.tap = p }
}

// WithIOSMixer enables the positive-half-clamped mixer path that works
// around an AVAudioEngine quirk on some iOS versions.
func WithIOSMixer() Option {
	return func(c *config) { c.iOSMixer = true }
}

// WithDesktopSaveTiming widens the backup-RAM debounce window from the
// mobile default, trading a slightly larger data-loss window on an
// unclean shutdown for fewer disk writes on desktop hosts.
func WithDesktopSaveTiming() Option {
	return func(c *config) { c.desktopSaveTiming = true }
}

type nullProducer struct{}

func (nullProducer) PushStereo(float32, float32) {}
