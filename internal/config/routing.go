package config

import (
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
)

// Slippage tolerances are expressed in basis points.
type RoutingConfig struct {
	DefaultSlippageBps int
	MaxSlippageBps     int
}

func (c *RoutingConfig) Key() string {
	return ROUTING_CONFIG_KEY
}

func (c *RoutingConfig) Load() error {
	c.DefaultSlippageBps = common.GetEnvOrDefaultInt("DEFAULT_SLIPPAGE_BPS", 50)
	c.MaxSlippageBps = common.GetEnvOrDefaultInt("MAX_SLIPPAGE_BPS", 5000)
	return c.Validate()
}

func (c *RoutingConfig) Validate() error {
	if c.MaxSlippageBps <= 0 || c.MaxSlippageBps >= 10000 {
		return fmt.Errorf("max slippage %d bps out of range", c.MaxSlippageBps)
	}
	if c.DefaultSlippageBps < 0 || c.DefaultSlippageBps > c.MaxSlippageBps {
		return fmt.Errorf("default slippage %d bps out of range", c.DefaultSlippageBps)
	}
	return nil
}
