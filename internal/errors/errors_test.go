package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = NewStd("buffer underflow")

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderCarriesContext(t *testing.T) {
	t.Parallel()

	ee := New(errSentinel).
		Component("audiocore").
		Category(CategoryBuffer).
		Context("requested", 512).
		Context("available", 128).
		Priority("bogus").
		Build()

	assert.Equal(t, "audiocore", ee.GetComponent())
	assert.Equal(t, CategoryBuffer, ee.Category)
	assert.Equal(t, PriorityMedium, ee.GetPriority())

	ctx := ee.GetContext()
	assert.Equal(t, 512, ctx["requested"])
	ctx["requested"] = 0
	assert.Equal(t, 512, ee.GetContext()["requested"], "context must be copied")
}

func TestIsMatchesWrappedSentinel(t *testing.T) {
	t.Parallel()

	ee := New(errSentinel).Category(CategoryBuffer).Build()
	wrapped := fmt.Errorf("read tick: %w", ee)

	assert.True(t, Is(wrapped, errSentinel))
	assert.True(t, IsCategory(wrapped, CategoryBuffer))
	assert.False(t, IsCategory(wrapped, CategoryValidation))
	assert.False(t, IsNotFound(wrapped))
}

func TestNilCauseErrorString(t *testing.T) {
	t.Parallel()

	ee := New(nil).Category(CategoryState).Build()
	assert.Equal(t, string(CategoryState), ee.Error())
	assert.Empty(t, ee.GetMessage())
}

func TestDetectCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		component string
		want      ErrorCategory
	}{
		{"buffer", NewStd("fifo underflow"), "", CategoryBuffer},
		{"file", NewStd("cannot open file"), "", CategoryFileIO},
		{"validation", NewStd("invalid sample rate"), "", CategoryValidation},
		{"source component", NewStd("decode failed"), "audiocore.sources", CategoryAudioSource},
		{"mixer component", NewStd("boom"), "audiocore.mixer", CategoryAudio},
		{"enhanced", New(NewStd("x")).Category(CategoryLimit).Build(), "", CategoryLimit},
		{"nil", nil, "", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(tt.err, tt.component))
		})
	}
}

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestReporterReceivesErrors(t *testing.T) {
	rep := &recordingReporter{}
	SetTelemetryReporter(rep)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("fifo underflow")).Build()

	require.Len(t, rep.reported, 1)
	assert.True(t, ee.IsReported())
	assert.Equal(t, CategoryBuffer, ee.Category)
}

func TestBasicPathScrub(t *testing.T) {
	t.Parallel()

	msg := basicPathScrub("cannot open /home/alice/music/take1.wav via https://host/x?token=abc")
	assert.NotContains(t, msg, "alice")
	assert.NotContains(t, msg, "token=abc")
	assert.Contains(t, msg, "/home/[USER]/music/take1.wav")
}
