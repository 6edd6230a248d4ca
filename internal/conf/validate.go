// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateMixerSettings(&settings.Mixer)...)
	ve.Errors = append(ve.Errors, validateOutputSettings(&settings.Output)...)

	if len(settings.Inputs) > settings.Mixer.MaxInputs && settings.Mixer.MaxInputs > 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%d inputs configured but mixer.maxinputs is %d",
			len(settings.Inputs), settings.Mixer.MaxInputs))
	}

	for i := range settings.Inputs {
		for _, msg := range validateInputSettings(&settings.Inputs[i]) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("inputs[%d]: %s", i, msg))
		}
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	if settings.Probe.CacheTTL < 0 {
		ve.Errors = append(ve.Errors, "probe.cachettl must not be negative")
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateMixerSettings(m *MixerSettings) []string {
	var errs []string

	if m.SampleRate < MinSampleRate {
		errs = append(errs, fmt.Sprintf("mixer.samplerate must be at least %d, got %d", MinSampleRate, m.SampleRate))
	}
	if !slices.Contains(validEncodings, strings.ToLower(m.Encoding)) {
		errs = append(errs, fmt.Sprintf("mixer.encoding %q is not one of %v", m.Encoding, validEncodings))
	}
	if m.Channels < 1 {
		errs = append(errs, "mixer.channels must be at least 1")
	}
	if m.MaxInputs < 1 {
		errs = append(errs, "mixer.maxinputs must be at least 1")
	}
	if m.DropOutTransition < 0 {
		errs = append(errs, "mixer.dropouttransition must not be negative")
	}
	if !slices.Contains(validDurations, strings.ToLower(m.Duration)) {
		errs = append(errs, fmt.Sprintf("mixer.duration %q is not one of %v", m.Duration, validDurations))
	}
	if m.FifoSamples < 2 {
		errs = append(errs, "mixer.fifosamples must be at least 2")
	}
	if m.TickSamples < 1 {
		errs = append(errs, "mixer.ticksamples must be at least 1")
	}

	return errs
}

func validateOutputSettings(o *OutputSettings) []string {
	var errs []string

	if !slices.Contains(validOutputTypes, o.Type) {
		errs = append(errs, fmt.Sprintf("output.type %q is not one of %v", o.Type, validOutputTypes))
		return errs
	}

	switch o.Type {
	case OutputWAV:
		if o.Path == "" {
			errs = append(errs, "output.path is required for wav output")
		}
		if !slices.Contains(validBitDepths, o.BitDepth) {
			errs = append(errs, fmt.Sprintf("output.bitdepth %d is not one of %v", o.BitDepth, validBitDepths))
		}
	case OutputPlayback:
		if o.BufferMs < 10 {
			errs = append(errs, "output.bufferms must be at least 10")
		}
	}

	return errs
}

func validateInputSettings(in *InputSettings) []string {
	var errs []string

	if in.Path == "" {
		errs = append(errs, "path is required")
	}
	if in.Trim.Start < 0 || in.Trim.Duration < 0 {
		errs = append(errs, "trim start and duration must not be negative")
	}
	if in.Volume != nil && (*in.Volume < 0 || *in.Volume > 3) {
		errs = append(errs, fmt.Sprintf("volume must be between 0.0 and 3.0, got %v", *in.Volume))
	}
	if in.Balance != nil && (*in.Balance < -1 || *in.Balance > 1) {
		errs = append(errs, fmt.Sprintf("balance must be between -1.0 and 1.0, got %v", *in.Balance))
	}

	fades := []struct {
		name string
		fade FadeSettings
	}{{"fadein", in.FadeIn}, {"fadeout", in.FadeOut}}

	for _, f := range fades {
		name, fade := f.name, f.fade
		if !fade.Enabled {
			continue
		}
		if fade.Start < 0 || fade.Duration < 0 {
			errs = append(errs, name+" start and duration must not be negative")
		}
		if fade.Curve != "" && !slices.Contains(validCurves, strings.ToLower(fade.Curve)) {
			errs = append(errs, fmt.Sprintf("%s curve %q is not one of %v", name, fade.Curve, validCurves))
		}
	}

	return errs
}
