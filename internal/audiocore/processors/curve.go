package processors

import (
	"math"
	"strings"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// CurveType selects the function mapping linear fade progress to gain.
type CurveType uint8

const (
	CurveTRI   CurveType = iota // linear
	CurveQSIN                   // quarter sine
	CurveIQSIN                  // inverted quarter sine
	CurveESIN                   // exponential sine
	CurveHSIN                   // half sine
	CurveIHSIN                  // inverted half sine
	CurveLOG                    // logarithmic
	CurvePAR                    // parabola
	CurveIPAR                   // inverted parabola
	CurveQUA                    // quadratic
	CurveCUB                    // cubic
	CurveSQU                    // square root
	CurveCBR                    // cube root
	CurveEXP                    // exponential
	CurveDESE                   // double exponential seat
	CurveDESI                   // double exponential sigmoid
	numCurves
)

var curveNames = [numCurves]string{
	CurveTRI:   "tri",
	CurveQSIN:  "qsin",
	CurveIQSIN: "iqsin",
	CurveESIN:  "esin",
	CurveHSIN:  "hsin",
	CurveIHSIN: "ihsin",
	CurveLOG:   "log",
	CurvePAR:   "par",
	CurveIPAR:  "ipar",
	CurveQUA:   "qua",
	CurveCUB:   "cub",
	CurveSQU:   "squ",
	CurveCBR:   "cbr",
	CurveEXP:   "exp",
	CurveDESE:  "dese",
	CurveDESI:  "desi",
}

// Curves returns every curve type in declaration order.
func Curves() []CurveType {
	curves := make([]CurveType, numCurves)
	for i := range curves {
		curves[i] = CurveType(i)
	}
	return curves
}

// IsValid reports whether c is a known curve.
func (c CurveType) IsValid() bool { return c < numCurves }

func (c CurveType) String() string {
	if !c.IsValid() {
		return "unknown"
	}
	return curveNames[c]
}

// ParseCurveType parses a case-insensitive curve name such as "tri" or "QSIN".
func ParseCurveType(s string) (CurveType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range curveNames {
		if n == name {
			return CurveType(i), nil
		}
	}
	return 0, errors.Newf("unknown fade curve %q", s).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("curve", s).
		Build()
}

// Apply maps progress g in [0, 1] to a gain in [0, 1].
func (c CurveType) Apply(g float64) float64 {
	return clamp01(c.gain(clamp01(g)))
}

func (c CurveType) gain(g float64) float64 {
	switch c {
	case CurveQSIN:
		return math.Sin(g * math.Pi / 2)
	case CurveIQSIN:
		return 0.636943 * math.Asin(g)
	case CurveESIN:
		return 1 - math.Cos(math.Pi/4*(math.Pow(2*g-1, 3)+1))
	case CurveHSIN:
		return (1 - math.Cos(g*math.Pi)) / 2
	case CurveIHSIN:
		return 0.318471 * math.Acos(1-2*g)
	case CurveEXP:
		return math.Pow(0.1, (1-g)*5)
	case CurveLOG:
		return 0.0868589 * math.Log(100000*g)
	case CurvePAR:
		return 1 - math.Sqrt(1-g)
	case CurveIPAR:
		return 1 - (1-g)*(1-g)
	case CurveQUA:
		return g * g
	case CurveCUB:
		return g * g * g
	case CurveSQU:
		return math.Sqrt(g)
	case CurveCBR:
		return math.Cbrt(g)
	case CurveDESE:
		if g <= 0.5 {
			return math.Cbrt(2*g) / 2
		}
		return 1 - math.Cbrt(2*(1-g))/2
	case CurveDESI:
		if g <= 0.5 {
			return math.Pow(2*g, 3) / 2
		}
		return 1 - math.Pow(2*(1-g), 3)/2
	default:
		return g
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0, math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
