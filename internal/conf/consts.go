package conf

// MinSampleRate is the lowest output sample rate accepted anywhere in audiomix.
const MinSampleRate = 8000

// Output types
const (
	OutputWAV      = "wav"
	OutputPlayback = "playback"
	OutputNull     = "null"
)

// validEncodings lists accepted sample encoding names.
var validEncodings = []string{
	"u8", "s8", "u16", "s16", "u32", "s32", "f32", "f64",
	"u8p", "s8p", "u16p", "s16p", "u32p", "s32p", "f32p", "f64p",
}

// validCurves lists accepted fade curve names.
var validCurves = []string{
	"tri", "qsin", "iqsin", "esin", "hsin", "ihsin", "log", "par",
	"ipar", "qua", "cub", "squ", "cbr", "exp", "dese", "desi",
}

var validDurations = []string{"first", "shortest", "longest"}

var validOutputTypes = []string{OutputWAV, OutputPlayback, OutputNull}

var validBitDepths = []int{8, 16, 24, 32}
