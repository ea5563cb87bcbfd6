package application

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/application/admin"
	"github.com/tdex-network/escrowd/internal/core/application/pubsub"
	"github.com/tdex-network/escrowd/internal/core/application/resolver"
	"github.com/tdex-network/escrowd/internal/core/application/vault"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/infrastructure/clock"
	dbbadger "github.com/tdex-network/escrowd/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/escrowd/internal/infrastructure/storage/db/inmemory"
)

const (
	DBBadger   = "badger"
	DBInMemory = "inmemory"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

// Config lazily builds the application services. Every exported getter
// returns nil if the related service could not be built, therefore Validate
// must be called first.
type Config struct {
	DBType   string
	DBConfig interface{}

	Custody       ports.Custody
	PubSub        ports.PubSub
	Clock         ports.Clock
	Delegates     []ports.YieldDelegate
	ConfigSources []ports.ConfigSource
	ChainID       uint64
	VaultAddress  common.Address

	repo     ports.RepoManager
	registry *resolver.Registry
	resolver *resolver.Resolver
	pubsub   *pubsub.Service
	guard    *vault.Guard
	vault    *vault.Service
	admin    *admin.Service
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("unsupported db type %q", c.DBType)
	}
	if c.Custody == nil {
		return fmt.Errorf("missing custody")
	}
	if c.PubSub == nil {
		return fmt.Errorf("missing pubsub")
	}
	if len(c.Delegates) <= 0 {
		return fmt.Errorf("missing yield delegates")
	}
	if len(c.ConfigSources) <= 0 {
		return fmt.Errorf("missing config sources")
	}

	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.registryService(); err != nil {
		return err
	}
	if _, err := c.pubsubService(); err != nil {
		return err
	}
	if _, err := c.vaultService(); err != nil {
		return err
	}
	if _, err := c.adminService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) Registry() *resolver.Registry {
	registry, _ := c.registryService()
	return registry
}

func (c *Config) PubSubService() *pubsub.Service {
	svc, _ := c.pubsubService()
	return svc
}

func (c *Config) VaultService() *vault.Service {
	svc, _ := c.vaultService()
	return svc
}

func (c *Config) AdminService() *admin.Service {
	svc, _ := c.adminService()
	return svc
}

// Close stops the event delivery and closes the repositories.
func (c *Config) Close() {
	if c.pubsub != nil {
		c.pubsub.Close()
	}
	if c.repo != nil {
		c.repo.Close()
	}
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case DBInMemory:
			c.repo = inmemory.NewRepoManager()
		default:
			return nil, fmt.Errorf("unsupported db type %q", c.DBType)
		}
	}
	return c.repo, nil
}

func (c *Config) registryService() (*resolver.Registry, error) {
	if c.registry == nil {
		registry := resolver.NewRegistry()
		for _, d := range c.Delegates {
			if err := registry.RegisterDelegate(d); err != nil {
				return nil, err
			}
		}
		for _, s := range c.ConfigSources {
			if err := registry.RegisterConfigSource(s); err != nil {
				return nil, err
			}
		}
		c.registry = registry
	}
	return c.registry, nil
}

func (c *Config) resolverService() (*resolver.Resolver, error) {
	if c.resolver == nil {
		registry, err := c.registryService()
		if err != nil {
			return nil, err
		}
		r, err := resolver.NewResolver(registry)
		if err != nil {
			return nil, err
		}
		c.resolver = r
	}
	return c.resolver, nil
}

func (c *Config) pubsubService() (*pubsub.Service, error) {
	if c.pubsub == nil {
		svc, err := pubsub.NewService(c.PubSub)
		if err != nil {
			return nil, err
		}
		c.pubsub = svc
	}
	return c.pubsub, nil
}

func (c *Config) clock() ports.Clock {
	if c.Clock == nil {
		c.Clock = clock.NewSystemClock()
	}
	return c.Clock
}

// engineGuard returns the guard shared by the vault engine and the policy
// admin.
func (c *Config) engineGuard() *vault.Guard {
	if c.guard == nil {
		c.guard = vault.NewGuard()
	}
	return c.guard
}

func (c *Config) vaultService() (*vault.Service, error) {
	if c.vault == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		r, err := c.resolverService()
		if err != nil {
			return nil, err
		}
		publisher, err := c.pubsubService()
		if err != nil {
			return nil, err
		}
		svc, err := vault.NewService(
			repo, c.Custody, r, c.clock(), publisher, c.ChainID, c.VaultAddress,
			c.engineGuard(),
		)
		if err != nil {
			return nil, err
		}
		c.vault = svc
	}
	return c.vault, nil
}

func (c *Config) adminService() (*admin.Service, error) {
	if c.admin == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		registry, err := c.registryService()
		if err != nil {
			return nil, err
		}
		publisher, err := c.pubsubService()
		if err != nil {
			return nil, err
		}
		svc, err := admin.NewService(
			repo, registry, c.clock(), publisher, c.ChainID, c.VaultAddress,
			c.engineGuard(),
		)
		if err != nil {
			return nil, err
		}
		c.admin = svc
	}
	return c.admin, nil
}
