package audiocore

import (
	"encoding/binary"
	"math"
)

// Codec is the numeric policy of one sample encoding. Samples are exchanged
// as float64 in the encoding's native domain (U8 0..255, S16 -32768..32767,
// F32 -1..1 and so on); float64 holds every value of every supported integer
// width exactly.
//
// Unsigned encodings are mixed and scaled around their midpoint so that
// values below it cancel values above it. Signed integer results saturate
// at the representable range, float results clamp to [-1, 1]. Integer
// scaling truncates toward zero before clamping.
type Codec struct {
	format SampleFormat
	size   int
	min    float64
	max    float64
	mid    float64
	// unit is the magnitude that maps to full scale in ToUnit/FromUnit
	unit  float64
	load  func(b []byte) float64
	store func(b []byte, v float64)
}

var le = binary.LittleEndian

var codecs = [...]*Codec{
	FormatU8: {
		format: FormatU8, size: 1, min: 0, max: math.MaxUint8, mid: 1 << 7, unit: 1 << 7,
		load:  func(b []byte) float64 { return float64(b[0]) },
		store: func(b []byte, v float64) { b[0] = uint8(v) },
	},
	FormatS8: {
		format: FormatS8, size: 1, min: math.MinInt8, max: math.MaxInt8, mid: 0, unit: 1 << 7,
		load:  func(b []byte) float64 { return float64(int8(b[0])) },
		store: func(b []byte, v float64) { b[0] = uint8(int8(v)) },
	},
	FormatU16: {
		format: FormatU16, size: 2, min: 0, max: math.MaxUint16, mid: 1 << 15, unit: 1 << 15,
		load:  func(b []byte) float64 { return float64(le.Uint16(b)) },
		store: func(b []byte, v float64) { le.PutUint16(b, uint16(v)) },
	},
	FormatS16: {
		format: FormatS16, size: 2, min: math.MinInt16, max: math.MaxInt16, mid: 0, unit: 1 << 15,
		load:  func(b []byte) float64 { return float64(int16(le.Uint16(b))) },
		store: func(b []byte, v float64) { le.PutUint16(b, uint16(int16(v))) },
	},
	FormatU32: {
		format: FormatU32, size: 4, min: 0, max: math.MaxUint32, mid: 1 << 31, unit: 1 << 31,
		load:  func(b []byte) float64 { return float64(le.Uint32(b)) },
		store: func(b []byte, v float64) { le.PutUint32(b, uint32(v)) },
	},
	FormatS32: {
		format: FormatS32, size: 4, min: math.MinInt32, max: math.MaxInt32, mid: 0, unit: 1 << 31,
		load:  func(b []byte) float64 { return float64(int32(le.Uint32(b))) },
		store: func(b []byte, v float64) { le.PutUint32(b, uint32(int32(v))) },
	},
	FormatF32: {
		format: FormatF32, size: 4, min: -1, max: 1, mid: 0, unit: 1,
		load:  func(b []byte) float64 { return float64(math.Float32frombits(le.Uint32(b))) },
		store: func(b []byte, v float64) { le.PutUint32(b, math.Float32bits(float32(v))) },
	},
	FormatF64: {
		format: FormatF64, size: 8, min: -1, max: 1, mid: 0, unit: 1,
		load:  func(b []byte) float64 { return math.Float64frombits(le.Uint64(b)) },
		store: func(b []byte, v float64) { le.PutUint64(b, math.Float64bits(v)) },
	},
}

// CodecFor returns the codec of an encoding. Planar variants share the codec
// of their packed counterpart. It returns nil for invalid formats.
func CodecFor(f SampleFormat) *Codec {
	p := f.Packed()
	if !p.IsValid() || int(p) >= len(codecs) {
		return nil
	}
	return codecs[p]
}

// Format returns the packed encoding this codec handles.
func (c *Codec) Format() SampleFormat { return c.format }

// Size returns the sample width in bytes.
func (c *Codec) Size() int { return c.size }

// Min returns the smallest representable sample.
func (c *Codec) Min() float64 { return c.min }

// Max returns the largest representable sample.
func (c *Codec) Max() float64 { return c.max }

// Mid returns the zero-amplitude midpoint of the range.
func (c *Codec) Mid() float64 { return c.mid }

// Silence returns the silent sample: zero for signed and float encodings,
// the midpoint for unsigned ones.
func (c *Codec) Silence() float64 { return c.mid }

// Load decodes the sample at the start of b.
func (c *Codec) Load(b []byte) float64 { return c.load(b) }

// Store encodes v at the start of b. Out of range values are clamped and
// integer encodings round to the nearest value.
func (c *Codec) Store(b []byte, v float64) {
	v = c.Clamp(v)
	if !c.format.IsFloat() {
		v = math.Round(v)
	}
	c.store(b, v)
}

// Clamp limits v to the representable range.
func (c *Codec) Clamp(v float64) float64 {
	if v < c.min {
		return c.min
	}
	if v > c.max {
		return c.max
	}
	if math.IsNaN(v) {
		return c.mid
	}
	return v
}

// Mix adds two samples, saturating at the range limits.
func (c *Codec) Mix(a, b float64) float64 {
	return c.Clamp(a - c.mid + b - c.mid + c.mid)
}

// Scale multiplies a sample by factor around the midpoint.
func (c *Codec) Scale(v, factor float64) float64 {
	s := (v - c.mid) * factor
	if !c.format.IsFloat() {
		s = math.Trunc(s)
	}
	return c.Clamp(s + c.mid)
}

// ToUnit maps a native sample to [-1, 1].
func (c *Codec) ToUnit(v float64) float64 {
	return (v - c.mid) / c.unit
}

// FromUnit maps a value in [-1, 1] to the native domain, clamped.
func (c *Codec) FromUnit(u float64) float64 {
	return c.Clamp(u*c.unit + c.mid)
}

// SilenceBytes fills b with silent samples.
func (c *Codec) SilenceBytes(b []byte) {
	if c.mid == 0 {
		clear(b)
		return
	}
	for i := 0; i+c.size <= len(b); i += c.size {
		c.store(b[i:], c.mid)
	}
}
