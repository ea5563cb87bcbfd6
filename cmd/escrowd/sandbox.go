package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tdex-network/escrowd/internal/config"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/infrastructure/configsource/inmemory"
	"github.com/tdex-network/escrowd/internal/infrastructure/custody"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield/lendingpool"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield/sharevault"
)

// sandboxConfig describes the assets and the yield protocols of the sandbox
// the vault settles on.
//
// Example of YAML file:
//
//	assets:
//	  USDT: "0x..."
//	addresses:
//	  LENDING_POOL: "0x..."
//	strings:
//	  YIELD_DELEGATE_DAI: "share-vault"
//	pools:
//	  - address: "0x..."
//	    reserves:
//	      - asset: USDT
//	        receipt: "0x..."
//	        entry_fee: 500
//	        liquidity_index: "1"
//	comptrollers:
//	  - address: "0x..."
//	    markets:
//	      - asset: DAI
//	        market: "0x..."
//	        exchange_rate: "0.02"
type sandboxConfig struct {
	Assets       map[string]string   `mapstructure:"assets"`
	Addresses    map[string]string   `mapstructure:"addresses"`
	Strings      map[string]string   `mapstructure:"strings"`
	Pools        []poolConfig        `mapstructure:"pools"`
	Comptrollers []comptrollerConfig `mapstructure:"comptrollers"`
}

type poolConfig struct {
	Address  string          `mapstructure:"address"`
	Reserves []reserveConfig `mapstructure:"reserves"`
}

type reserveConfig struct {
	Asset          string `mapstructure:"asset"`
	Receipt        string `mapstructure:"receipt"`
	EntryFee       uint32 `mapstructure:"entry_fee"`
	LiquidityIndex string `mapstructure:"liquidity_index"`
}

type comptrollerConfig struct {
	Address string         `mapstructure:"address"`
	Markets []marketConfig `mapstructure:"markets"`
}

type marketConfig struct {
	Asset        string `mapstructure:"asset"`
	Market       string `mapstructure:"market"`
	ExchangeRate string `mapstructure:"exchange_rate"`
}

// defaultSandbox lists USDT on a lending pool and DAI on a share vault.
var defaultSandbox = sandboxConfig{
	Assets: map[string]string{
		"USDT": "0x0000000000000000000000000000000000001001",
		"DAI":  "0x0000000000000000000000000000000000001002",
	},
	Addresses: map[string]string{
		"LENDING_POOL":     "0x000000000000000000000000000000000000bbbb",
		"LENDING_POOL_DAI": "0x000000000000000000000000000000000000cccc",
	},
	Strings: map[string]string{
		"YIELD_DELEGATE_DAI": sharevault.DelegateName,
	},
	Pools: []poolConfig{
		{
			Address: "0x000000000000000000000000000000000000bbbb",
			Reserves: []reserveConfig{
				{
					Asset:          "USDT",
					Receipt:        "0x0000000000000000000000000000000000002001",
					EntryFee:       500,
					LiquidityIndex: "1",
				},
			},
		},
	},
	Comptrollers: []comptrollerConfig{
		{
			Address: "0x000000000000000000000000000000000000cccc",
			Markets: []marketConfig{
				{
					Asset:        "DAI",
					Market:       "0x0000000000000000000000000000000000003002",
					ExchangeRate: "0.02",
				},
			},
		},
	},
}

type sandbox struct {
	book         *custody.Book
	pools        *lendingpool.Directory
	comptrollers *sharevault.Directory
	source       inmemory.Source
}

// newSandbox builds the sandbox described by the given file, or the default
// one if the filename is empty.
func newSandbox(filename string) (*sandbox, error) {
	cfg := defaultSandbox
	if len(filename) > 0 {
		vip := viper.New()
		vip.SetConfigFile(filename)
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read sandbox file: %w", err)
		}
		cfg = sandboxConfig{}
		if err := vip.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse sandbox file: %w", err)
		}
	}

	sb := &sandbox{
		book:         custody.NewBook(),
		pools:        lendingpool.NewDirectory(),
		comptrollers: sharevault.NewDirectory(),
		source:       inmemory.NewSource(config.StaticConfigSource),
	}

	assets := make(map[string]common.Address)
	for key, value := range cfg.Assets {
		asset, err := parseAddress(value)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", key, err)
		}
		key = strings.ToUpper(key)
		assets[key] = asset
		sb.source.SetAsset(key, asset)
	}
	for name, value := range cfg.Addresses {
		addr, err := parseAddress(value)
		if err != nil {
			return nil, fmt.Errorf("address %s: %w", name, err)
		}
		sb.source.SetAddress(name, addr)
	}
	for name, value := range cfg.Strings {
		sb.source.SetString(name, value)
	}

	for _, p := range cfg.Pools {
		if err := sb.addPool(p, assets); err != nil {
			return nil, err
		}
	}
	for _, c := range cfg.Comptrollers {
		if err := sb.addComptroller(c, assets); err != nil {
			return nil, err
		}
	}

	log.Infof(
		"sandbox ready with %d assets, %d pools and %d comptrollers",
		len(assets), len(cfg.Pools), len(cfg.Comptrollers),
	)
	return sb, nil
}

func (sb *sandbox) addPool(
	cfg poolConfig, assets map[string]common.Address,
) error {
	addr, err := parseAddress(cfg.Address)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	pool := lendingpool.NewPool(addr, sb.book)

	for _, r := range cfg.Reserves {
		underlying, ok := assets[strings.ToUpper(r.Asset)]
		if !ok {
			return fmt.Errorf("pool %s: unknown asset %s", cfg.Address, r.Asset)
		}
		receipt, err := parseAddress(r.Receipt)
		if err != nil {
			return fmt.Errorf("pool %s: receipt: %w", cfg.Address, err)
		}
		if err := pool.AddReserve(underlying, receipt, r.EntryFee); err != nil {
			return fmt.Errorf("pool %s: %w", cfg.Address, err)
		}
		if len(r.LiquidityIndex) > 0 {
			index, err := decimal.NewFromString(r.LiquidityIndex)
			if err != nil {
				return fmt.Errorf("pool %s: invalid liquidity index", cfg.Address)
			}
			if err := pool.SetLiquidityIndex(underlying, index); err != nil {
				return fmt.Errorf("pool %s: %w", cfg.Address, err)
			}
		}
		log.Debugf(
			"sandbox pool %s: listed %s as %s",
			addr.Hex(), r.Asset, lendingpool.ReceiptSymbol(r.Asset),
		)
	}

	sb.pools.Add(pool)
	return nil
}

func (sb *sandbox) addComptroller(
	cfg comptrollerConfig, assets map[string]common.Address,
) error {
	addr, err := parseAddress(cfg.Address)
	if err != nil {
		return fmt.Errorf("comptroller: %w", err)
	}
	comptroller := sharevault.NewComptroller(addr, sb.book)

	for _, m := range cfg.Markets {
		underlying, ok := assets[strings.ToUpper(m.Asset)]
		if !ok {
			return fmt.Errorf(
				"comptroller %s: unknown asset %s", cfg.Address, m.Asset,
			)
		}
		market, err := parseAddress(m.Market)
		if err != nil {
			return fmt.Errorf("comptroller %s: market: %w", cfg.Address, err)
		}
		rate, err := decimal.NewFromString(m.ExchangeRate)
		if err != nil {
			return fmt.Errorf(
				"comptroller %s: invalid exchange rate", cfg.Address,
			)
		}
		if err := comptroller.ListMarket(market, underlying, rate); err != nil {
			return fmt.Errorf("comptroller %s: %w", cfg.Address, err)
		}
		log.Debugf(
			"sandbox comptroller %s: listed %s as %s",
			addr.Hex(), m.Asset, sharevault.ShareSymbol(m.Asset),
		)
	}

	sb.comptrollers.Add(comptroller)
	return nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, domain.ErrInvalidPrincipal
	}
	return addr, nil
}
