package audiocore

// Format limits
const (
	// MinSampleRate is the lowest supported sample rate in Hz
	MinSampleRate = 8000
)

// Mixer defaults
const (
	// DefaultSampleRate is the default mixer output rate
	DefaultSampleRate = 44100

	// DefaultChannels is the default mixer output channel count
	DefaultChannels = 2

	// DefaultEncoding is the default mixer output encoding
	DefaultEncoding = FormatS16

	// DefaultMaxInputs is the default number of mixer input slots
	DefaultMaxInputs = 3

	// DefaultDropOutTransition is the time in seconds over which the mixer
	// settles its loudness after an input stops
	DefaultDropOutTransition = 2.0

	// DefaultFifoSamples is the initial per input FIFO allocation
	DefaultFifoSamples = 8192

	// DefaultTickSamples is the number of samples read per mixer tick
	DefaultTickSamples = 1024
)

// DefaultFormat returns the default mixer output format
func DefaultFormat() AudioFormat {
	return AudioFormat{
		SampleRate: DefaultSampleRate,
		Encoding:   DefaultEncoding,
		Channels:   DefaultChannels,
	}
}
