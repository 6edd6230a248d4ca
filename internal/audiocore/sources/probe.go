package sources

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// streamInfo is what a decoder knows about its stream once open
type streamInfo struct {
	codec    string
	bitDepth int
	duration time.Duration
	metadata map[string]string
}

// describer is implemented by decoders that can report stream properties
type describer interface {
	describe() streamInfo
}

func durationOf(samples int64, sampleRate int) time.Duration {
	if samples <= 0 || sampleRate <= 0 {
		return 0
	}
	return time.Duration(audiocore.RescaleRound(samples, int64(time.Second), int64(sampleRate)))
}

// InputProperties describes an audio input file
type InputProperties struct {
	Path      string
	CodecName string
	Format    audiocore.AudioFormat
	BitRate   int
	StartTime time.Duration
	Duration  time.Duration
	Metadata  map[string]string
}

// NewInputProperties validates and returns input properties. A nil metadata
// map is replaced by an empty one.
func NewInputProperties(path, codec string, format audiocore.AudioFormat, bitRate int, start, duration time.Duration, metadata map[string]string) (*InputProperties, error) {
	switch {
	case codec == "":
		return nil, probeError("no codec name has been specified", path)
	case bitRate < 0:
		return nil, probeError(fmt.Sprintf("invalid bit rate: %d", bitRate), path)
	case duration < 0:
		return nil, probeError(fmt.Sprintf("invalid duration: %s", duration), path)
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	md := make(map[string]string, len(metadata))
	maps.Copy(md, metadata)
	return &InputProperties{
		Path:      path,
		CodecName: codec,
		Format:    format,
		BitRate:   bitRate,
		StartTime: start,
		Duration:  duration,
		Metadata:  md,
	}, nil
}

func probeError(msg, path string) error {
	return errors.Newf("%s", msg).
		Component(audiocore.ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("path", path).
		Build()
}

// Probe opens path, reads its stream properties and closes it again
func Probe(path string) (*InputProperties, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := src.Open(); err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	d, ok := src.dec.(describer)
	if !ok {
		return nil, probeError("decoder cannot describe its stream", path)
	}
	info := d.describe()
	format := src.Format()

	// Compressed streams report the average rate over the file
	bitRate := format.SampleRate * info.bitDepth * format.Channels
	if !strings.HasPrefix(info.codec, "pcm_") && info.duration > 0 {
		if st, err := os.Stat(path); err == nil {
			bitRate = int(st.Size() * 8 * int64(time.Second) / int64(info.duration))
		}
	}

	return NewInputProperties(path, info.codec, format, bitRate, 0, info.duration, info.metadata)
}

// Default probe cache settings
const (
	DefaultProbeCacheTTL = 10 * time.Minute
)

// ProbeCache memoises Probe results per file and is safe for concurrent use.
// Entries are keyed by path, size and modification time, so a rewritten file
// is probed again.
type ProbeCache struct {
	cache  *cache.Cache
	probe  func(string) (*InputProperties, error)
	hits   atomic.Int64
	misses atomic.Int64
}

// NewProbeCache creates a cache whose entries expire after ttl
func NewProbeCache(ttl time.Duration) *ProbeCache {
	if ttl <= 0 {
		ttl = DefaultProbeCacheTTL
	}
	return &ProbeCache{
		cache: cache.New(ttl, ttl*2),
		probe: Probe,
	}
}

func probeKey(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "probe").
			Context("path", path).
			Build()
	}
	return fmt.Sprintf("%s:%d:%d", path, st.Size(), st.ModTime().UnixNano()), nil
}

// Probe returns the cached properties of path, probing it on a miss
func (pc *ProbeCache) Probe(path string) (*InputProperties, error) {
	key, err := probeKey(path)
	if err != nil {
		return nil, err
	}
	if cached, found := pc.cache.Get(key); found {
		if props, ok := cached.(*InputProperties); ok {
			pc.hits.Add(1)
			return props, nil
		}
	}
	pc.misses.Add(1)

	props, err := pc.probe(path)
	if err != nil {
		return nil, err
	}
	pc.cache.Set(key, props, cache.DefaultExpiration)
	return props, nil
}

// Stats returns the number of cache hits and misses
func (pc *ProbeCache) Stats() (hits, misses int64) { return pc.hits.Load(), pc.misses.Load() }

// Len returns the number of cached entries
func (pc *ProbeCache) Len() int { return pc.cache.ItemCount() }

// Flush removes every entry
func (pc *ProbeCache) Flush() { pc.cache.Flush() }
