// Package vault implements the escrow engine: deposits are pulled in and put
// to work through a yield delegate, and later pulled out either by their
// intended recipient or, after the recovery delay, by their depositor.
package vault

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/application/resolver"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

// MaxTxAttempts is the number of times a unit of work is run when it fails to
// commit because of a concurrent write to the ledger db.
const MaxTxAttempts = 3

type Service struct {
	repoManager ports.RepoManager
	custody     ports.Custody
	resolver    *resolver.Resolver
	clock       ports.Clock
	publisher   ports.EventPublisher
	treasury    ports.Treasury
	origin      domain.EventOrigin

	guard *Guard
}

func NewService(
	repoManager ports.RepoManager,
	custody ports.Custody,
	resolver *resolver.Resolver,
	clock ports.Clock,
	publisher ports.EventPublisher,
	chainID uint64,
	vaultAddress common.Address,
	guard *Guard,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if custody == nil {
		return nil, fmt.Errorf("missing custody")
	}
	if resolver == nil {
		return nil, fmt.Errorf("missing resolver")
	}
	if clock == nil {
		return nil, fmt.Errorf("missing clock")
	}
	if vaultAddress == (common.Address{}) {
		return nil, fmt.Errorf("missing vault address")
	}
	if publisher == nil {
		return nil, fmt.Errorf("missing event publisher")
	}
	if guard == nil {
		guard = NewGuard()
	}

	return &Service{
		repoManager: repoManager,
		custody:     custody,
		resolver:    resolver,
		clock:       clock,
		publisher:   publisher,
		treasury:    NewTreasury(custody, vaultAddress),
		origin:      domain.EventOrigin{ChainID: chainID, Vault: vaultAddress},
		guard:       guard,
	}, nil
}

// Vault returns the principal holding the escrowed funds.
func (s *Service) Vault() common.Address {
	return s.origin.Vault
}

func (s *Service) ChainID() uint64 {
	return s.origin.ChainID
}

// Deposit pulls amount of underlying from the caller, that must have approved
// the vault, supplies it to the yield strategy bound to the asset and records
// the yield asset actually received as a new deposit for the given recipient.
// Either all of this happens or nothing does.
func (s *Service) Deposit(
	ctx context.Context,
	caller, underlying common.Address, amount *big.Int,
	recipient common.Address,
) (uint64, error) {
	if IsInFlight(ctx) {
		return 0, domain.ErrReentrantCall
	}
	if isNullAddress(underlying) {
		return 0, domain.ErrInvalidAsset
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if isNullAddress(caller) {
		return 0, fmt.Errorf("%w: missing caller", domain.ErrInvalidPrincipal)
	}
	if isNullAddress(recipient) {
		return 0, fmt.Errorf(
			"%w: missing intended recipient", domain.ErrInvalidPrincipal,
		)
	}

	var id uint64
	event, err := s.guarded(ctx, func(
		ctx context.Context,
	) (event *domain.Event, err error) {
		id, event, err = s.deposit(ctx, caller, underlying, amount, recipient)
		return
	})
	if err != nil {
		return 0, err
	}

	log.Debugf(
		"deposit %d: %s of %s for %s", id, amount, underlying.Hex(), recipient.Hex(),
	)
	s.publisher.PublishEvents(*event)
	return id, nil
}

func (s *Service) deposit(
	ctx context.Context,
	caller, underlying common.Address, amount *big.Int,
	recipient common.Address,
) (uint64, *domain.Event, error) {
	policy, err := s.repoManager.PolicyRepository().GetPolicy(ctx)
	if err != nil {
		return 0, nil, err
	}

	assetKey, err := s.resolver.ResolveAssetKey(ctx, *policy, underlying)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", domain.ErrInvalidAsset, err)
	}
	binding, err := s.resolver.ResolveDelegateBinding(ctx, *policy, assetKey)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", domain.ErrInvalidAsset, err)
	}

	var yieldAsset common.Address
	s.guard.External(func() {
		yieldAsset, err = resolveYieldAsset(ctx, binding)
	})
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", domain.ErrYieldAssetNotFound, err)
	}
	if isNullAddress(yieldAsset) {
		return 0, nil, domain.ErrYieldAssetNotFound
	}

	var event *domain.Event
	var id uint64
	if err := s.unitOfWork().RunWithRetry(ctx, MaxTxAttempts, func(
		ctx context.Context,
	) error {
		vault := s.Vault()
		if err := s.custody.TransferFrom(
			ctx, underlying, vault, caller, vault, amount,
		); err != nil {
			return fmt.Errorf("failed to pull underlying: %w", err)
		}

		before, err := s.custody.BalanceOf(ctx, yieldAsset, vault)
		if err != nil {
			return err
		}

		s.guard.External(func() {
			_, err = supply(ctx, binding, s.treasury, ports.SupplyRequest{
				AssetKey:       assetKey,
				Asset:          underlying,
				Amount:         new(big.Int).Set(amount),
				Beneficiary:    vault,
				Pool:           binding.Pool,
				Config:         binding.ConfigSource,
				YieldAssetHint: yieldAsset,
			})
		})
		if err != nil {
			return fmt.Errorf("%w: %s", domain.ErrSupplyFailed, err)
		}

		after, err := s.custody.BalanceOf(ctx, yieldAsset, vault)
		if err != nil {
			return err
		}
		received := new(big.Int).Sub(after, before)
		if received.Sign() <= 0 {
			return domain.ErrNoYieldReceived
		}

		now := s.clock.Now()
		deposit, err := domain.NewDeposit(
			caller, underlying, amount, yieldAsset, received, recipient, now,
		)
		if err != nil {
			return err
		}
		if id, err = s.repoManager.DepositRepository().AddDeposit(
			ctx, deposit,
		); err != nil {
			return err
		}

		if event, err = domain.NewEvent(
			s.origin, domain.EventDeposited, domain.NewDepositedEvent(*deposit), now,
		); err != nil {
			return err
		}
		return s.repoManager.EventRepository().AddEvents(ctx, event)
	}); err != nil {
		return 0, nil, err
	}
	return id, event, nil
}

// Claim transfers the yield asset of the deposit to its intended recipient.
func (s *Service) Claim(
	ctx context.Context, claimant common.Address, id uint64,
) error {
	event, err := s.guarded(ctx, func(
		ctx context.Context,
	) (*domain.Event, error) {
		return s.resolve(ctx, id, func(
			d *domain.Deposit, policy domain.Policy, now time.Time,
		) (common.Address, *domain.Event, error) {
			if err := d.Claim(claimant, policy, now); err != nil {
				return common.Address{}, nil, err
			}
			ev, err := domain.NewEvent(
				s.origin, domain.EventClaimed, domain.NewClaimedEvent(*d, claimant),
				now,
			)
			return claimant, ev, err
		})
	})
	if err != nil {
		return err
	}

	log.Debugf("deposit %d claimed by %s", id, claimant.Hex())
	s.publisher.PublishEvents(*event)
	return nil
}

// Recover gives the yield asset of the deposit back to its depositor once the
// recovery delay in force has elapsed.
func (s *Service) Recover(
	ctx context.Context, caller common.Address, id uint64,
) error {
	event, err := s.guarded(ctx, func(
		ctx context.Context,
	) (*domain.Event, error) {
		return s.resolve(ctx, id, func(
			d *domain.Deposit, policy domain.Policy, now time.Time,
		) (common.Address, *domain.Event, error) {
			if err := d.Recover(caller, policy, now); err != nil {
				return common.Address{}, nil, err
			}
			ev, err := domain.NewEvent(
				s.origin, domain.EventRecovered, domain.NewRecoveredEvent(*d), now,
			)
			return d.Depositor, ev, err
		})
	})
	if err != nil {
		return err
	}

	log.Debugf("deposit %d recovered by %s", id, caller.Hex())
	s.publisher.PublishEvents(*event)
	return nil
}

// guarded runs fn holding the guard. Events are meant to be published by the
// caller once the guard is released.
func (s *Service) guarded(
	ctx context.Context, fn func(ctx context.Context) (*domain.Event, error),
) (*domain.Event, error) {
	ctx, release, err := s.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return fn(ctx)
}

// EstimateUnderlyingValue returns the amount of underlying the deposit would
// be redeemed for. It is advisory only and returns zero on any failure.
func (s *Service) EstimateUnderlyingValue(
	ctx context.Context, id uint64,
) *big.Int {
	zero := big.NewInt(0)

	deposit, err := s.repoManager.DepositRepository().GetDeposit(ctx, id)
	if err != nil || !deposit.Exists() {
		return zero
	}
	policy, err := s.repoManager.PolicyRepository().GetPolicy(ctx)
	if err != nil {
		return zero
	}
	assetKey, err := s.resolver.ResolveAssetKey(
		ctx, *policy, deposit.UnderlyingAsset,
	)
	if err != nil {
		return zero
	}
	binding, err := s.resolver.ResolveDelegateBinding(ctx, *policy, assetKey)
	if err != nil {
		return zero
	}

	amount, err := estimateRedeemAmount(ctx, binding, deposit.YieldAmount)
	if err != nil {
		log.WithError(err).Warnf(
			"failed to estimate underlying value of deposit %d", id,
		)
		return zero
	}
	if amount == nil || amount.Sign() < 0 {
		return zero
	}
	return amount
}

func (s *Service) GetDeposit(
	ctx context.Context, id uint64,
) (*domain.Deposit, error) {
	return s.repoManager.DepositRepository().GetDeposit(ctx, id)
}

func (s *Service) GetActiveIDs(
	ctx context.Context, depositor common.Address,
) ([]uint64, error) {
	return s.repoManager.DepositRepository().GetActiveDepositIDs(ctx, depositor)
}

func (s *Service) GetActiveCount(
	ctx context.Context, depositor common.Address,
) (int, error) {
	return s.repoManager.DepositRepository().CountActiveDeposits(ctx, depositor)
}

func (s *Service) GetClaimableIDs(
	ctx context.Context, recipient common.Address,
) ([]uint64, error) {
	return s.repoManager.DepositRepository().GetClaimableDepositIDs(
		ctx, recipient,
	)
}

func (s *Service) GetClaimableCount(
	ctx context.Context, recipient common.Address,
) (int, error) {
	return s.repoManager.DepositRepository().CountClaimableDeposits(
		ctx, recipient,
	)
}

// ListEvents returns a page of the emitted events starting from the given
// sequence number.
func (s *Service) ListEvents(
	ctx context.Context, fromSequence uint64, page domain.Page,
) ([]domain.Event, error) {
	return s.repoManager.EventRepository().GetEvents(ctx, fromSequence, page)
}

type transitionFn func(
	d *domain.Deposit, policy domain.Policy, now time.Time,
) (common.Address, *domain.Event, error)

// resolve applies the terminal transition to the deposit and transfers its
// yield asset to the beneficiary returned by the transition, atomically.
func (s *Service) resolve(
	ctx context.Context, id uint64, transition transitionFn,
) (*domain.Event, error) {
	var event *domain.Event
	if err := s.unitOfWork().RunWithRetry(ctx, MaxTxAttempts, func(
		ctx context.Context,
	) error {
		policy, err := s.repoManager.PolicyRepository().GetPolicy(ctx)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		var (
			deposit     domain.Deposit
			beneficiary common.Address
		)
		if err := s.repoManager.DepositRepository().UpdateDeposit(
			ctx, id, func(d *domain.Deposit) (*domain.Deposit, error) {
				b, ev, err := transition(d, *policy, now)
				if err != nil {
					return nil, err
				}
				deposit, beneficiary, event = d.Copy(), b, ev
				return d, nil
			},
		); err != nil {
			return err
		}

		if err := s.custody.Transfer(
			ctx, deposit.YieldAsset, s.Vault(), beneficiary, deposit.YieldAmount,
		); err != nil {
			return fmt.Errorf("failed to transfer yield asset: %w", err)
		}
		return s.repoManager.EventRepository().AddEvents(ctx, event)
	}); err != nil {
		return nil, err
	}
	return event, nil
}

// unitOfWork commits the ledger db before the custody journal: the journal
// can't fail to commit, so a failed db commit always leaves custody rolled
// back together with it.
func (s *Service) unitOfWork() *uow.UnitOfWork {
	return uow.NewUnitOfWork(s.repoManager, s.custody)
}

// supply invokes the delegate, turning a panic into an error.
func supply(
	ctx context.Context, binding *resolver.Binding, treasury ports.Treasury,
	req ports.SupplyRequest,
) (shares *big.Int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delegate %s panicked: %v", binding.DelegateRef, r)
		}
	}()
	return binding.Delegate.Supply(ctx, treasury, req)
}

func resolveYieldAsset(
	ctx context.Context, binding *resolver.Binding,
) (asset common.Address, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delegate %s panicked: %v", binding.DelegateRef, r)
		}
	}()
	return binding.Delegate.ResolveYieldAsset(
		ctx, binding.AssetKey, binding.Pool, binding.ConfigSource,
	)
}

func estimateRedeemAmount(
	ctx context.Context, binding *resolver.Binding, yieldAmount *big.Int,
) (amount *big.Int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delegate %s panicked: %v", binding.DelegateRef, r)
		}
	}()
	return binding.Delegate.EstimateRedeemAmount(
		ctx, binding.AssetKey, new(big.Int).Set(yieldAmount), binding.Pool,
		binding.ConfigSource,
	)
}

func isNullAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
