package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tdex-network/escrowd/internal/config"
	"github.com/tdex-network/escrowd/internal/core/application"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/internal/infrastructure/configsource/file"
	"github.com/tdex-network/escrowd/internal/infrastructure/pubsub"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield/lendingpool"
	"github.com/tdex-network/escrowd/internal/infrastructure/yield/sharevault"
	httpinterface "github.com/tdex-network/escrowd/internal/interfaces/http"
	"github.com/tdex-network/escrowd/pkg/stats"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:           "escrowd",
		Short:         "escrow vault daemon",
		Long:          "escrowd holds deposits for intended recipients and supplies them to yield strategies until claimed or recovered",
		Version:       formatVersion(),
		RunE:          serve,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the daemon, configured through ESCROW_* env vars",
		RunE:  serve,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "print version info",
		Run: func(*cobra.Command, []string) {
			fmt.Println(formatVersion())
		},
	}
)

func init() {
	app.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serve(*cobra.Command, []string) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	dbType := config.GetString(config.DBTypeKey)

	sb, err := newSandbox(config.GetString(config.SandboxFileKey))
	if err != nil {
		return err
	}

	sources := []ports.ConfigSource{sb.source}
	if filename := config.GetString(config.ConfigFileKey); len(filename) > 0 {
		source, err := file.NewSource(config.FileConfigSource, filename, true)
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}

	webhookDatadir := datadir
	if dbType == application.DBInMemory {
		webhookDatadir = ""
	}
	webhookPubSub, err := pubsub.NewService(
		webhookDatadir, config.GetInt(config.WebhookRateLimitKey), log.New(),
	)
	if err != nil {
		return err
	}

	appConfig := &application.Config{
		DBType:   dbType,
		DBConfig: filepath.Join(datadir, config.DbLocation),
		Custody:  sb.book,
		PubSub:   webhookPubSub,
		Delegates: []ports.YieldDelegate{
			lendingpool.NewDelegate(sb.pools),
			sharevault.NewDelegate(sb.comptrollers),
		},
		ConfigSources: sources,
		ChainID:       config.GetUint64(config.ChainIDKey),
		VaultAddress:  config.GetAddress(config.VaultAddressKey),
	}
	if err := appConfig.Validate(); err != nil {
		return err
	}
	defer appConfig.Close()

	policy, err := domain.NewPolicy(
		config.GetAddress(config.OwnerAddressKey),
		config.GetSeconds(config.RecoveryDelayKey),
		config.GetString(config.ConfigSourceKey),
		config.GetString(config.DefaultDelegateKey),
		config.GetString(config.PoolKeyPrefixKey),
	)
	if err != nil {
		return err
	}
	policy.WhitelistEnabled = config.GetBool(config.WhitelistEnabledKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := appConfig.AdminService().InitPolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to init policy: %w", err)
	}

	opts := httpinterface.ServiceOpts{
		Address:       fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey)),
		EnableMetrics: config.GetBool(config.EnableMetricsKey),
		VaultSvc:      appConfig.VaultService(),
		AdminSvc:      appConfig.AdminService(),
		PubSubSvc:     appConfig.PubSubService(),
	}
	if config.GetBool(config.SandboxKey) {
		opts.SandboxBook = sb.book
		log.Warn("sandbox routes enabled, anyone can mint test tokens")
	}
	svc, err := httpinterface.NewService(opts)
	if err != nil {
		return err
	}

	if config.GetBool(config.EnableProfilerKey) {
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(
			ctx, interval, filepath.Join(datadir, config.ProfilerLocation),
		)
	}

	log.Info("starting daemon")
	if err := svc.Start(); err != nil {
		return err
	}
	defer svc.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
	return nil
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
