package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"tranchepool/native/registry"
)

// Policy identifiers accepted by the TranchesPolicy field.
const (
	PolicyRiskAdjusted     = "riskadjusted"
	PolicyFixedSeniorYield = "fixedyield"
)

// Config captures the daemon configuration loaded from TOML. The address and
// parameter blocks seed the ConfigRegistry; runtime changes flow through the
// registry owner, not this file.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	TranchesPolicy string `toml:"TranchesPolicy"`

	Pool      PoolParams `toml:"pool"`
	Addresses Addresses  `toml:"addresses"`
}

// PoolParams mirrors registry.Params in TOML-friendly form.
type PoolParams struct {
	SeniorYieldBps            uint64 `toml:"SeniorYieldBps"`
	TranchesRiskAdjustmentBps uint64 `toml:"TranchesRiskAdjustmentBps"`
	MaxJuniorProfitShareBps   uint64 `toml:"MaxJuniorProfitShareBps"`
	LiquidityCap              string `toml:"LiquidityCap"`
}

// Addresses mirrors registry.Addresses as hex strings.
type Addresses struct {
	Owner              string   `toml:"Owner"`
	SeniorTrancheVault string   `toml:"SeniorTrancheVault"`
	JuniorTrancheVault string   `toml:"JuniorTrancheVault"`
	FirstLossCovers    []string `toml:"FirstLossCovers"`
	Credit             string   `toml:"Credit"`
	FeeManager         string   `toml:"FeeManager"`
	Pool               string   `toml:"Pool"`
}

// Load reads and validates the configuration at the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8547"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.TranchesPolicy) == "" {
		cfg.TranchesPolicy = PolicyRiskAdjusted
	}
	cfg.TranchesPolicy = strings.ToLower(strings.TrimSpace(cfg.TranchesPolicy))
}

// Validate rejects configurations that cannot produce a working pool.
func Validate(cfg *Config) error {
	switch cfg.TranchesPolicy {
	case PolicyRiskAdjusted, PolicyFixedSeniorYield:
	default:
		return fmt.Errorf("tranches_policy: unknown policy %q", cfg.TranchesPolicy)
	}
	if cfg.Pool.TranchesRiskAdjustmentBps > 10_000 && cfg.TranchesPolicy == PolicyRiskAdjusted {
		return fmt.Errorf("pool: tranches_risk_adjustment_bps > 10000")
	}
	if cfg.Pool.MaxJuniorProfitShareBps > 10_000 {
		return fmt.Errorf("pool: max_junior_profit_share_bps > 10000")
	}
	if cfg.Pool.LiquidityCap != "" {
		if _, ok := new(big.Int).SetString(cfg.Pool.LiquidityCap, 10); !ok {
			return fmt.Errorf("pool: liquidity_cap is not a base-10 integer")
		}
	}
	required := map[string]string{
		"owner":                cfg.Addresses.Owner,
		"senior_tranche_vault": cfg.Addresses.SeniorTrancheVault,
		"junior_tranche_vault": cfg.Addresses.JuniorTrancheVault,
		"credit":               cfg.Addresses.Credit,
		"fee_manager":          cfg.Addresses.FeeManager,
		"pool":                 cfg.Addresses.Pool,
	}
	for field, value := range required {
		if !common.IsHexAddress(value) {
			return fmt.Errorf("addresses: %s is not a hex address", field)
		}
	}
	for i, cover := range cfg.Addresses.FirstLossCovers {
		if !common.IsHexAddress(cover) {
			return fmt.Errorf("addresses: first_loss_covers[%d] is not a hex address", i)
		}
	}
	return nil
}

// RegistryAddresses converts the configured hex strings into the registry's
// address set.
func (c *Config) RegistryAddresses() registry.Addresses {
	addrs := registry.Addresses{
		SeniorTrancheVault: common.HexToAddress(c.Addresses.SeniorTrancheVault),
		JuniorTrancheVault: common.HexToAddress(c.Addresses.JuniorTrancheVault),
		Credit:             common.HexToAddress(c.Addresses.Credit),
		FeeManager:         common.HexToAddress(c.Addresses.FeeManager),
		Pool:               common.HexToAddress(c.Addresses.Pool),
	}
	for _, cover := range c.Addresses.FirstLossCovers {
		addrs.FirstLossCovers = append(addrs.FirstLossCovers, common.HexToAddress(cover))
	}
	return addrs
}

// RegistryParams converts the configured parameters into the registry's
// parameter set.
func (c *Config) RegistryParams() registry.Params {
	params := registry.Params{
		SeniorYieldBps:            c.Pool.SeniorYieldBps,
		TranchesRiskAdjustmentBps: c.Pool.TranchesRiskAdjustmentBps,
		MaxJuniorProfitShareBps:   c.Pool.MaxJuniorProfitShareBps,
	}
	if c.Pool.LiquidityCap != "" {
		params.LiquidityCap, _ = new(big.Int).SetString(c.Pool.LiquidityCap, 10)
	}
	return params
}

// Owner reports the configured registry owner authority.
func (c *Config) Owner() common.Address {
	return common.HexToAddress(c.Addresses.Owner)
}
