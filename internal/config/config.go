package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/tdex-network/escrowd/internal/core/application"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

const (
	// ListeningPortKey is the port where the HTTP interface listens on
	ListeningPortKey = "LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// ChainIDKey is the id of the chain the vault lives on, used to identify
	// the emitted events
	ChainIDKey = "CHAIN_ID"
	// VaultAddressKey is the principal holding the escrowed funds
	VaultAddressKey = "VAULT_ADDRESS"
	// OwnerAddressKey is the initial owner of the admin policy
	OwnerAddressKey = "OWNER_ADDRESS"
	// RecoveryDelayKey is the initial recovery delay in seconds
	RecoveryDelayKey = "RECOVERY_DELAY"
	// WhitelistEnabledKey enables the claim whitelist of the initial policy
	WhitelistEnabledKey = "WHITELIST_ENABLED"
	// DefaultDelegateKey is the yield delegate of the initial policy
	DefaultDelegateKey = "DEFAULT_DELEGATE"
	// ConfigSourceKey is the config source of the initial policy
	ConfigSourceKey = "CONFIG_SOURCE"
	// ConfigFileKey is the path of the file config source. The source is
	// registered only if defined
	ConfigFileKey = "CONFIG_FILE"
	// PoolKeyPrefixKey is the prefix of the config keys of the pool targets
	PoolKeyPrefixKey = "POOL_KEY_PREFIX"
	// SandboxKey enables the routes to mint and approve sandbox tokens
	SandboxKey = "SANDBOX"
	// SandboxFileKey is the path of the file describing the sandbox assets
	// and protocols
	SandboxFileKey = "SANDBOX_FILE"
	// WebhookRateLimitKey is the max number of webhook requests per second
	WebhookRateLimitKey = "WEBHOOK_RATE_LIMIT"
	// EnableMetricsKey exposes the prometheus /metrics endpoint
	EnableMetricsKey = "ENABLE_METRICS"
	// EnableProfilerKey enables periodic logging of memory statistics
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	WebhooksLocation = "webhooks"
	ProfilerLocation = "stats"

	// StaticConfigSource is the name of the config source populated with the
	// sandbox bindings
	StaticConfigSource = "static"
	// FileConfigSource is the name of the config source read from CONFIG_FILE
	FileConfigSource = "file"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("escrowd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("ESCROW")
	vip.AutomaticEnv()

	vip.SetDefault(ListeningPortKey, 9080)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(ChainIDKey, 11155111)
	vip.SetDefault(RecoveryDelayKey, int64(domain.DefaultRecoveryDelay/time.Second))
	vip.SetDefault(WhitelistEnabledKey, false)
	vip.SetDefault(DefaultDelegateKey, "lending-pool")
	vip.SetDefault(ConfigSourceKey, StaticConfigSource)
	vip.SetDefault(PoolKeyPrefixKey, domain.DefaultPoolKeyPrefix)
	vip.SetDefault(SandboxKey, true)
	vip.SetDefault(WebhookRateLimitKey, 100)
	vip.SetDefault(EnableMetricsKey, true)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetAddress returns the address for the given key. It's safe to call it
// only for validated keys.
func GetAddress(key string) common.Address {
	return common.HexToAddress(GetString(key))
}

// GetSeconds returns the duration for the given key expressed in seconds.
func GetSeconds(key string) time.Duration {
	return time.Duration(vip.GetInt64(key)) * time.Second
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, ok := application.SupportedDBType[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf("unsupported db type %s", GetString(DBTypeKey))
	}

	if GetUint64(ChainIDKey) == 0 {
		return fmt.Errorf("%s must not be zero", ChainIDKey)
	}

	for _, key := range []string{VaultAddressKey, OwnerAddressKey} {
		value := GetString(key)
		if !common.IsHexAddress(value) {
			return fmt.Errorf("%s must be a valid hex address", key)
		}
		if common.HexToAddress(value) == (common.Address{}) {
			return fmt.Errorf("%s must not be the zero address", key)
		}
	}

	if vip.GetInt64(RecoveryDelayKey) < 0 {
		return fmt.Errorf("%s must not be negative", RecoveryDelayKey)
	}

	if GetInt(WebhookRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", WebhookRateLimitKey)
	}

	if GetString(ConfigSourceKey) == FileConfigSource &&
		len(GetString(ConfigFileKey)) <= 0 {
		return fmt.Errorf(
			"%s must be defined to use the %s config source",
			ConfigFileKey, FileConfigSource,
		)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, WebhooksLocation)); err != nil {
		return err
	}

	if GetBool(EnableProfilerKey) {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
