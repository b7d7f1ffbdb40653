package app

import (
	"context"
	"fmt"

	"thermogo/internal/protocol"
)

// ChannelLimits are the TEC driver bounds applied before closed-loop
// operation.
type ChannelLimits struct {
	MaxV    float64
	MaxIPos float64
	MaxINeg float64
}

// ApplyLimits configures one channel's driver bounds.
func ApplyLimits(ctx context.Context, c *protocol.Client, channel int, limits ChannelLimits) error {
	if err := c.SetParameter(ctx, "pwm", channel, "max_v", limits.MaxV); err != nil {
		return fmt.Errorf("set max_v on channel %d: %w", channel, err)
	}
	if err := c.SetParameter(ctx, "pwm", channel, "max_i_pos", limits.MaxIPos); err != nil {
		return fmt.Errorf("set max_i_pos on channel %d: %w", channel, err)
	}
	if err := c.SetParameter(ctx, "pwm", channel, "max_i_neg", limits.MaxINeg); err != nil {
		return fmt.Errorf("set max_i_neg on channel %d: %w", channel, err)
	}

	return nil
}

// ApplySetup applies the same driver bounds to every channel and
// optionally powers each one up at a target temperature.
func ApplySetup(ctx context.Context, c *protocol.Client, limits ChannelLimits, target *float64) error {
	for channel := 0; channel < c.Channels(); channel++ {
		if err := ApplyLimits(ctx, c, channel, limits); err != nil {
			return err
		}
		if target != nil {
			if err := c.PowerUp(ctx, channel, *target); err != nil {
				return fmt.Errorf("power up channel %d: %w", channel, err)
			}
		}
	}

	return nil
}
