package sources

import (
	"path/filepath"
	"strings"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// Open creates a source for path based on its file extension. The source is
// returned unopened.
func Open(path string) (*DecoderSource, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		return NewWAVSource(path), nil
	case ".flac":
		return NewFLACSource(path), nil
	case ".mp3":
		return NewMP3Source(path), nil
	case ".ogg", ".oga":
		return NewVorbisSource(path), nil
	case ".aif", ".aiff":
		return NewAIFFSource(path), nil
	default:
		return nil, errors.Newf("unsupported audio file type: %s", ext).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
}

// IsSupported reports whether Open knows a decoder for path
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave", ".flac", ".mp3", ".ogg", ".oga", ".aif", ".aiff":
		return true
	}
	return false
}
