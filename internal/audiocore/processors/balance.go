package processors

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// BalanceProcessor attenuates one side of the stereo image. Even channels
// get gain clamp(1+v, 0, 1) and odd channels clamp(1-v, 0, 1), so positive
// values fade the odd (right) channels and negative values the even ones.
type BalanceProcessor struct {
	id      string
	balance atomic.Value // stores float64
	logger  *slog.Logger
}

// NewBalanceProcessor creates a balance processor for v in [-1, 1]
func NewBalanceProcessor(id string, v float64) (*BalanceProcessor, error) {
	if err := validateBalance(v); err != nil {
		return nil, err
	}
	bp := &BalanceProcessor{
		id:     id,
		logger: newLogger("balance_processor", id),
	}
	bp.balance.Store(v)
	return bp, nil
}

func validateBalance(v float64) error {
	if !(v >= -1 && v <= 1) {
		return invalidParam("balance", v, "must be between -1.0 and 1.0")
	}
	return nil
}

func (bp *BalanceProcessor) ID() string   { return bp.id }
func (bp *BalanceProcessor) Type() string { return TypeBalance }
func (bp *BalanceProcessor) Reset()       {}

// Balance returns the current balance
func (bp *BalanceProcessor) Balance() float64 {
	return bp.balance.Load().(float64)
}

// SetBalance updates the balance
func (bp *BalanceProcessor) SetBalance(v float64) error {
	if err := validateBalance(v); err != nil {
		return err
	}
	bp.balance.Store(v)
	bp.logger.Info("balance updated", "new_balance", v)
	return nil
}

// ChannelGain returns the gain applied to channel ch
func ChannelGain(balance float64, ch int) float64 {
	if ch%2 == 1 {
		balance = -balance
	}
	return clamp01(1 + balance)
}

// Process scales each channel of the frame in place
func (bp *BalanceProcessor) Process(ctx context.Context, frame *audiocore.Frame) (*audiocore.Frame, error) {
	if frame == nil {
		return nil, nilFrameError(bp.id)
	}

	v := bp.Balance()
	if v == 0 {
		return frame, nil
	}

	b, err := audiocore.WrapBuffer(frame)
	if err != nil {
		return nil, err
	}
	for b.HasRemaining() {
		if err := b.Scale(ChannelGain(v, b.Channel())); err != nil {
			return nil, err
		}
	}

	if bp.logger.Enabled(ctx, slog.LevelDebug) {
		bp.logger.Debug("applied balance",
			"balance", v,
			"num_samples", frame.NumSamples)
	}
	return frame, nil
}
