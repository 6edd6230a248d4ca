package audiocore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/audiomix/internal/errors"
)

// mockProcessor implements AudioProcessor for testing
type mockProcessor struct {
	id          string
	processFunc func(*Frame) (*Frame, error)
	calls       int
	resets      int
}

func (m *mockProcessor) ID() string   { return m.id }
func (m *mockProcessor) Type() string { return "mock" }
func (m *mockProcessor) Reset()       { m.resets++ }

func (m *mockProcessor) Process(_ context.Context, frame *Frame) (*Frame, error) {
	m.calls++
	if m.processFunc != nil {
		return m.processFunc(frame)
	}
	return frame, nil
}

// addOffset returns a processor adding v to every sample
func addOffset(id string, v float64) *mockProcessor {
	return &mockProcessor{id: id, processFunc: func(f *Frame) (*Frame, error) {
		b, err := WrapBuffer(f)
		if err != nil {
			return nil, err
		}
		for b.HasRemaining() {
			if err := b.MixSample(v); err != nil {
				return nil, err
			}
		}
		return f, nil
	}}
}

func TestProcessorChainAddRemove(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	proc1 := &mockProcessor{id: "proc1"}
	proc2 := &mockProcessor{id: "proc2"}

	require.NoError(t, chain.AddProcessor(proc1))
	require.NoError(t, chain.AddProcessor(proc2))
	assert.Equal(t, 2, chain.Len())

	err := chain.AddProcessor(proc1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.Error(t, chain.AddProcessor(nil))

	require.NoError(t, chain.RemoveProcessor("proc1"))
	processors := chain.Processors()
	require.Len(t, processors, 1)
	assert.Equal(t, "proc2", processors[0].ID())

	err = chain.RemoveProcessor("proc1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessorNotFound))
	assert.True(t, errors.IsNotFound(err))

	// Processors returns a copy
	processors[0] = proc1
	assert.Equal(t, "proc2", chain.Processors()[0].ID())
}

func TestProcessorChainProcessOrder(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	var order []string
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, chain.AddProcessor(&mockProcessor{id: id, processFunc: func(f *Frame) (*Frame, error) {
			order = append(order, id)
			return f, nil
		}}))
	}

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 1), 4, 0)
	require.NoError(t, err)
	out, err := chain.Process(context.Background(), frame)
	require.NoError(t, err)
	assert.Same(t, frame, out)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestProcessorChainTransformsFrame(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	require.NoError(t, chain.AddProcessor(addOffset("plus100", 100)))
	require.NoError(t, chain.AddProcessor(addOffset("plus20", 20)))

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 2), 3, 0)
	require.NoError(t, err)
	out, err := chain.Process(context.Background(), frame)
	require.NoError(t, err)
	assert.Equal(t, []float64{120, 120, 120, 120, 120, 120}, frameValues(t, out))
}

func TestProcessorChainEmptyPassesThrough(t *testing.T) {
	t.Parallel()

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 1), 4, 0)
	require.NoError(t, err)
	out, err := NewProcessorChain().Process(context.Background(), frame)
	require.NoError(t, err)
	assert.Same(t, frame, out)
}

func TestProcessorChainDropShortCircuits(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	dropper := &mockProcessor{id: "drop", processFunc: func(*Frame) (*Frame, error) { return nil, nil }}
	after := &mockProcessor{id: "after"}
	require.NoError(t, chain.AddProcessor(dropper))
	require.NoError(t, chain.AddProcessor(after))

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 1), 4, 0)
	require.NoError(t, err)
	out, err := chain.Process(context.Background(), frame)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, 1, dropper.calls)
	assert.Equal(t, 0, after.calls)
}

func TestProcessorChainErrorWrapping(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	require.NoError(t, chain.AddProcessor(&mockProcessor{id: "bad", processFunc: func(*Frame) (*Frame, error) {
		return nil, ErrInvalidFrame
	}}))
	after := &mockProcessor{id: "after"}
	require.NoError(t, chain.AddProcessor(after))

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 1), 4, 0)
	require.NoError(t, err)
	out, err := chain.Process(context.Background(), frame)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrInvalidFrame))
	assert.True(t, errors.IsCategory(err, errors.CategoryProcessing))
	assert.Equal(t, 0, after.calls)
}

func TestProcessorChainContextCancel(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	proc := &mockProcessor{id: "p"}
	require.NoError(t, chain.AddProcessor(proc))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 1), 4, 0)
	require.NoError(t, err)
	_, err = chain.Process(ctx, frame)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, proc.calls)
}

func TestProcessorChainReset(t *testing.T) {
	t.Parallel()

	chain := NewProcessorChain()
	a := &mockProcessor{id: "a"}
	b := &mockProcessor{id: "b"}
	require.NoError(t, chain.AddProcessor(a))
	require.NoError(t, chain.AddProcessor(b))

	chain.Reset()
	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
}
