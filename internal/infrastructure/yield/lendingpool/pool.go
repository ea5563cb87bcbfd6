// Package lendingpool implements a sandbox lending pool with rebasing
// receipts: supplying an underlying asset mints the same amount of receipt,
// minus an entry fee, whose redeem value grows with the liquidity index.
package lendingpool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield"
	"github.com/tdex-network/escrowd/pkg/mathutil"
)

var (
	// ErrReserveNotFound ...
	ErrReserveNotFound = errors.New("reserve not found")
	// ErrReservePaused is returned when supplying to a paused reserve.
	ErrReservePaused = errors.New("reserve is paused")
	// ErrInvalidLiquidityIndex ...
	ErrInvalidLiquidityIndex = errors.New("liquidity index must be positive")
)

type reserve struct {
	receipt        common.Address
	entryFee       uint32
	liquidityIndex decimal.Decimal
	paused         bool
}

// Pool holds a reserve for every supported underlying asset.
type Pool struct {
	address  common.Address
	custody  yield.Custody
	reserves map[common.Address]*reserve

	lock *sync.RWMutex
}

func NewPool(address common.Address, custody yield.Custody) *Pool {
	return &Pool{
		address:  address,
		custody:  custody,
		reserves: make(map[common.Address]*reserve),
		lock:     &sync.RWMutex{},
	}
}

func (p *Pool) Address() common.Address {
	return p.address
}

// AddReserve enables the given underlying asset. The entry fee is expressed in
// basis points.
func (p *Pool) AddReserve(
	underlying, receipt common.Address, entryFee uint32,
) error {
	if entryFee >= 10000 {
		return fmt.Errorf("entry fee must be lower than 10000 bps")
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.reserves[underlying] = &reserve{
		receipt:        receipt,
		entryFee:       entryFee,
		liquidityIndex: decimal.NewFromInt(1),
	}
	return nil
}

func (p *Pool) SetLiquidityIndex(underlying common.Address, index decimal.Decimal) error {
	if !index.IsPositive() {
		return ErrInvalidLiquidityIndex
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	r, ok := p.reserves[underlying]
	if !ok {
		return ErrReserveNotFound
	}
	r.liquidityIndex = index
	return nil
}

func (p *Pool) SetPaused(underlying common.Address, paused bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	r, ok := p.reserves[underlying]
	if !ok {
		return ErrReserveNotFound
	}
	r.paused = paused
	return nil
}

// ReceiptAsset returns the receipt minted for the given underlying.
func (p *Pool) ReceiptAsset(underlying common.Address) (common.Address, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	r, ok := p.reserves[underlying]
	if !ok {
		return common.Address{}, ErrReserveNotFound
	}
	return r.receipt, nil
}

// Supply pulls amount of underlying from the given supplier, that must have
// approved the pool, and mints the receipt to onBehalfOf. It returns the
// amount of receipt minted.
func (p *Pool) Supply(
	ctx context.Context, supplier, underlying common.Address, amount *big.Int,
	onBehalfOf common.Address,
) (*big.Int, error) {
	p.lock.RLock()
	r, ok := p.reserves[underlying]
	var rr reserve
	if ok {
		rr = *r
	}
	p.lock.RUnlock()

	if !ok {
		return nil, ErrReserveNotFound
	}
	if rr.paused {
		return nil, ErrReservePaused
	}

	if err := p.custody.TransferFrom(
		ctx, underlying, p.address, supplier, p.address, amount,
	); err != nil {
		return nil, err
	}

	minted, _ := mathutil.LessFee(amount, rr.entryFee)
	if err := p.custody.Mint(ctx, rr.receipt, onBehalfOf, minted); err != nil {
		return nil, err
	}
	return minted, nil
}

// RedeemEstimate returns the underlying obtained by redeeming the given
// amount of receipt.
func (p *Pool) RedeemEstimate(
	underlying common.Address, receiptAmount *big.Int,
) (*big.Int, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	r, ok := p.reserves[underlying]
	if !ok {
		return nil, ErrReserveNotFound
	}
	return mathutil.MulRate(receiptAmount, r.liquidityIndex), nil
}

// Directory keeps track of the deployed pools by address.
type Directory struct {
	pools map[common.Address]*Pool
	lock  *sync.RWMutex
}

func NewDirectory(pools ...*Pool) *Directory {
	d := &Directory{
		pools: make(map[common.Address]*Pool),
		lock:  &sync.RWMutex{},
	}
	for _, p := range pools {
		d.Add(p)
	}
	return d
}

func (d *Directory) Add(p *Pool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.pools[p.Address()] = p
}

func (d *Directory) Pool(addr common.Address) (*Pool, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	p, ok := d.pools[addr]
	return p, ok
}
