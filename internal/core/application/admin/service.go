// Package admin implements the owner-gated management of the vault policy.
// Every change is recorded as an event and takes effect immediately.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/application/resolver"
	"github.com/tdex-network/escrowd/internal/core/application/vault"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/storageutil/uow"
)

type Service struct {
	repoManager ports.RepoManager
	registry    *resolver.Registry
	clock       ports.Clock
	publisher   ports.EventPublisher
	origin      domain.EventOrigin
	guard       *vault.Guard
}

func NewService(
	repoManager ports.RepoManager,
	registry *resolver.Registry,
	clock ports.Clock,
	publisher ports.EventPublisher,
	chainID uint64,
	vaultAddress common.Address,
	guard *vault.Guard,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if registry == nil {
		return nil, fmt.Errorf("missing registry")
	}
	if clock == nil {
		return nil, fmt.Errorf("missing clock")
	}
	if publisher == nil {
		return nil, fmt.Errorf("missing event publisher")
	}
	if guard == nil {
		guard = vault.NewGuard()
	}
	return &Service{
		repoManager: repoManager,
		registry:    registry,
		clock:       clock,
		publisher:   publisher,
		origin:      domain.EventOrigin{ChainID: chainID, Vault: vaultAddress},
		guard:       guard,
	}, nil
}

// InitPolicy stores the given policy unless one is already in force, in which
// case the stored one wins and is returned.
func (s *Service) InitPolicy(
	ctx context.Context, policy *domain.Policy,
) (*domain.Policy, error) {
	if policy == nil {
		return nil, fmt.Errorf("missing policy")
	}
	if _, err := s.registry.ConfigSource(policy.ConfigSourceRef); err != nil {
		return nil, err
	}
	if _, err := s.registry.Delegate(policy.DelegateRef); err != nil {
		return nil, err
	}

	current, err := s.repoManager.PolicyRepository().InitPolicy(ctx, policy)
	if err != nil {
		return nil, err
	}
	log.Infof(
		"policy in force: version %d, owner %s", current.Version,
		current.Owner.Hex(),
	)
	return current, nil
}

func (s *Service) GetPolicy(ctx context.Context) (*domain.Policy, error) {
	return s.repoManager.PolicyRepository().GetPolicy(ctx)
}

func (s *Service) SetWhitelisted(
	ctx context.Context, caller, principal common.Address, allowed bool,
) error {
	return s.updatePolicy(
		ctx, domain.EventWhitelistUpdated,
		func(p *domain.Policy) (interface{}, error) {
			return p.SetWhitelisted(caller, principal, allowed)
		},
	)
}

func (s *Service) SetWhitelistEnabled(
	ctx context.Context, caller common.Address, enabled bool,
) error {
	return s.updatePolicy(
		ctx, domain.EventWhitelistStatusUpdated,
		func(p *domain.Policy) (interface{}, error) {
			return p.SetWhitelistEnabled(caller, enabled)
		},
	)
}

func (s *Service) SetRecoveryDelay(
	ctx context.Context, caller common.Address, delay time.Duration,
) error {
	return s.updatePolicy(
		ctx, domain.EventRecoveryDelayUpdated,
		func(p *domain.Policy) (interface{}, error) {
			return p.SetRecoveryDelay(caller, delay)
		},
	)
}

// SetDelegate changes the default yield delegate. Only delegates registered at
// boot can be selected.
func (s *Service) SetDelegate(
	ctx context.Context, caller common.Address, ref string,
) error {
	return s.updatePolicy(
		ctx, domain.EventDelegateUpdated,
		func(p *domain.Policy) (interface{}, error) {
			if !p.IsOwner(caller) {
				return nil, domain.ErrNotOwner
			}
			if _, err := s.registry.Delegate(ref); err != nil {
				return nil, err
			}
			return p.SetDelegateRef(caller, ref)
		},
	)
}

// SetConfigSource changes the active config source. Only sources registered
// at boot can be selected.
func (s *Service) SetConfigSource(
	ctx context.Context, caller common.Address, ref string,
) error {
	return s.updatePolicy(
		ctx, domain.EventConfigSourceUpdated,
		func(p *domain.Policy) (interface{}, error) {
			if !p.IsOwner(caller) {
				return nil, domain.ErrNotOwner
			}
			if _, err := s.registry.ConfigSource(ref); err != nil {
				return nil, err
			}
			return p.SetConfigSourceRef(caller, ref)
		},
	)
}

func (s *Service) TransferOwnership(
	ctx context.Context, caller, newOwner common.Address,
) error {
	return s.updatePolicy(
		ctx, domain.EventOwnershipTransferred,
		func(p *domain.Policy) (interface{}, error) {
			return p.TransferOwnership(caller, newOwner)
		},
	)
}

// DelegateRefs returns the references of the registered yield delegates.
func (s *Service) DelegateRefs() []string {
	return s.registry.DelegateRefs()
}

// ConfigSourceRefs returns the references of the registered config sources.
func (s *Service) ConfigSourceRefs() []string {
	return s.registry.ConfigSourceRefs()
}

type mutationFn func(p *domain.Policy) (interface{}, error)

// updatePolicy holds the guard shared with the vault engine so that the policy
// never changes in the middle of a deposit, claim or recovery.
func (s *Service) updatePolicy(
	ctx context.Context, eventType domain.EventType, mutate mutationFn,
) error {
	event, err := s.mutatePolicy(ctx, eventType, mutate)
	if err != nil {
		return err
	}

	log.Infof("policy updated: %s", eventType)
	s.publisher.PublishEvents(*event)
	return nil
}

func (s *Service) mutatePolicy(
	ctx context.Context, eventType domain.EventType, mutate mutationFn,
) (*domain.Event, error) {
	ctx, release, err := s.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var event *domain.Event
	if err := uow.NewUnitOfWork(s.repoManager).RunWithRetry(
		ctx, vault.MaxTxAttempts, func(ctx context.Context) error {
			if err := s.repoManager.PolicyRepository().UpdatePolicy(
				ctx, func(p *domain.Policy) (*domain.Policy, error) {
					payload, err := mutate(p)
					if err != nil {
						return nil, err
					}
					ev, err := domain.NewEvent(
						s.origin, eventType, payload, s.clock.Now(),
					)
					if err != nil {
						return nil, err
					}
					event = ev
					return p, nil
				},
			); err != nil {
				return err
			}
			return s.repoManager.EventRepository().AddEvents(ctx, event)
		},
	); err != nil {
		return nil, err
	}
	return event, nil
}
