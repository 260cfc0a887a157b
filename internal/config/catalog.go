package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type CatalogConfig struct {
	// Source is a local directory or an http(s) base URL holding the
	// pools, routes, tokens and programIds documents.
	Source string

	// Network selects the document set. Default: "mainnet"
	Network string

	// SnapshotPath is the BoltDB file keeping the last good catalog.
	// Default: "./data/orca-router.db"
	SnapshotPath string

	// SnapshotEnabled controls whether loaded catalogs are persisted and used
	// as a fallback when the source is unreachable.
	SnapshotEnabled bool

	// PrefetchBalances warms the balance cache for every pool on start.
	PrefetchBalances bool
}

func (c *CatalogConfig) Key() string {
	return CATALOG_CONFIG_KEY
}

func (c *CatalogConfig) Load() error {
	c.Source = common.GetEnvOrDefault("CATALOG_SOURCE", "./catalog")
	c.Network = common.GetEnvOrDefault("CATALOG_NETWORK", "mainnet")
	c.SnapshotPath = common.GetEnvOrDefault("CATALOG_SNAPSHOT_PATH", "./data/orca-router.db")
	c.SnapshotEnabled = common.GetEnvOrDefault("CATALOG_SNAPSHOT_ENABLED", "true") == "true"
	c.PrefetchBalances = common.GetEnvOrDefault("BALANCE_PREFETCH", "false") == "true"
	return c.Validate()
}

func (c *CatalogConfig) Validate() error {
	if c.Source == "" || c.Network == "" {
		return errors.New("invalid catalog config")
	}
	if c.SnapshotEnabled && c.SnapshotPath == "" {
		return errors.New("catalog snapshot enabled without a path")
	}
	return nil
}
