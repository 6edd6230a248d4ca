package convert

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tphakala/audiomix/internal/audiocore/sources"
	"github.com/tphakala/audiomix/internal/errors"
)

// ExpandPaths resolves glob patterns such as "music/**/*.flac" to the
// supported audio files they match. Plain paths are kept as given.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryValidation).
				Context("pattern", arg).
				Build()
		}
		slices.Sort(matches)
		for _, m := range matches {
			if sources.IsSupported(m) {
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}
