// Package sharevault implements a sandbox yield protocol with exchange-rate
// shares: supplying an underlying asset to a market mints market shares
// valued at the current exchange rate.
package sharevault

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield"
	"github.com/tdex-network/escrowd/pkg/mathutil"
)

var (
	// ErrMarketNotFound ...
	ErrMarketNotFound = errors.New("market not found")
	// ErrMintPaused is returned when supplying to a market with paused mints.
	ErrMintPaused = errors.New("market mint is paused")
	// ErrInvalidExchangeRate ...
	ErrInvalidExchangeRate = errors.New("exchange rate must be positive")
)

// Market is both the vault of an underlying asset and the share token it
// mints.
type Market struct {
	Address      common.Address
	Underlying   common.Address
	ExchangeRate decimal.Decimal
	MintPaused   bool
}

// Comptroller holds the market of every supported underlying asset.
type Comptroller struct {
	address common.Address
	custody yield.Custody
	markets map[common.Address]*Market

	lock *sync.RWMutex
}

func NewComptroller(address common.Address, custody yield.Custody) *Comptroller {
	return &Comptroller{
		address: address,
		custody: custody,
		markets: make(map[common.Address]*Market),
		lock:    &sync.RWMutex{},
	}
}

func (c *Comptroller) Address() common.Address {
	return c.address
}

// ListMarket lists a new market for the given underlying. The share token is
// the market address itself.
func (c *Comptroller) ListMarket(
	market, underlying common.Address, exchangeRate decimal.Decimal,
) error {
	if !exchangeRate.IsPositive() {
		return ErrInvalidExchangeRate
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.markets[underlying] = &Market{
		Address:      market,
		Underlying:   underlying,
		ExchangeRate: exchangeRate,
	}
	return nil
}

func (c *Comptroller) SetExchangeRate(
	underlying common.Address, exchangeRate decimal.Decimal,
) error {
	if !exchangeRate.IsPositive() {
		return ErrInvalidExchangeRate
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	m, ok := c.markets[underlying]
	if !ok {
		return ErrMarketNotFound
	}
	m.ExchangeRate = exchangeRate
	return nil
}

func (c *Comptroller) SetMintPaused(underlying common.Address, paused bool) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	m, ok := c.markets[underlying]
	if !ok {
		return ErrMarketNotFound
	}
	m.MintPaused = paused
	return nil
}

// Market returns a copy of the market of the given underlying.
func (c *Comptroller) Market(underlying common.Address) (Market, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	m, ok := c.markets[underlying]
	if !ok {
		return Market{}, ErrMarketNotFound
	}
	return *m, nil
}

// Mint pulls amount of underlying from the given supplier, that must have
// approved the market, and mints shares to the given minter. Shares are
// rounded down.
func (c *Comptroller) Mint(
	ctx context.Context, supplier, underlying common.Address, amount *big.Int,
	minter common.Address,
) (*big.Int, error) {
	m, err := c.Market(underlying)
	if err != nil {
		return nil, err
	}
	if m.MintPaused {
		return nil, ErrMintPaused
	}

	shares, err := mathutil.DivRate(amount, m.ExchangeRate)
	if err != nil {
		return nil, err
	}

	if err := c.custody.TransferFrom(
		ctx, underlying, m.Address, supplier, m.Address, amount,
	); err != nil {
		return nil, err
	}
	if err := c.custody.Mint(ctx, m.Address, minter, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// RedeemEstimate returns the underlying obtained by redeeming the given
// amount of shares.
func (c *Comptroller) RedeemEstimate(
	underlying common.Address, shares *big.Int,
) (*big.Int, error) {
	m, err := c.Market(underlying)
	if err != nil {
		return nil, err
	}
	return mathutil.MulRate(shares, m.ExchangeRate), nil
}

// Directory keeps track of the deployed comptrollers by address.
type Directory struct {
	comptrollers map[common.Address]*Comptroller
	lock         *sync.RWMutex
}

func NewDirectory(comptrollers ...*Comptroller) *Directory {
	d := &Directory{
		comptrollers: make(map[common.Address]*Comptroller),
		lock:         &sync.RWMutex{},
	}
	for _, c := range comptrollers {
		d.Add(c)
	}
	return d
}

func (d *Directory) Add(c *Comptroller) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.comptrollers[c.Address()] = c
}

func (d *Directory) Comptroller(addr common.Address) (*Comptroller, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	c, ok := d.comptrollers[addr]
	return c, ok
}
