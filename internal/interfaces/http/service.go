// Package httpinterface exposes the vault, its admin policy and the event
// delivery channels over a JSON HTTP API.
package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/application/admin"
	"github.com/tdex-network/escrowd/internal/core/application/pubsub"
	"github.com/tdex-network/escrowd/internal/core/application/vault"
	interfaces "github.com/tdex-network/escrowd/internal/interfaces"
)

const (
	shutdownTimeout = 10 * time.Second
	requestTimeout  = 30 * time.Second
)

type ServiceOpts struct {
	Address       string
	EnableMetrics bool

	VaultSvc  *vault.Service
	AdminSvc  *admin.Service
	PubSubSvc *pubsub.Service
	// SandboxBook, if defined, enables the sandbox routes.
	SandboxBook SandboxBook
}

func (o ServiceOpts) validate() error {
	if len(o.Address) <= 0 {
		return fmt.Errorf("missing listening address")
	}
	if o.VaultSvc == nil {
		return fmt.Errorf("vault app service must not be null")
	}
	if o.AdminSvc == nil {
		return fmt.Errorf("admin app service must not be null")
	}
	if o.PubSubSvc == nil {
		return fmt.Errorf("pubsub app service must not be null")
	}
	return nil
}

type service struct {
	opts     ServiceOpts
	server   *http.Server
	listener net.Listener
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	return &service{
		opts: opts,
		server: &http.Server{
			Addr:              opts.Address,
			Handler:           NewHandler(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Address, err)
	}
	s.listener = lis

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http interface stopped unexpectedly")
		}
	}()
	log.Infof("http interface listening on %s", s.Addr())
	return nil
}

func (s *service) Addr() string {
	if s.listener == nil {
		return s.opts.Address
	}
	return s.listener.Addr().String()
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
	}
	log.Debug("disabled http interface")
}

// NewHandler returns the router serving every route of the daemon.
func NewHandler(opts ServiceOpts) http.Handler {
	vaultHandler := newVaultHandler(opts.VaultSvc)
	adminHandler := newAdminHandler(opts.AdminSvc)
	webhookHandler := newWebhookHandler(opts.PubSubSvc)
	streamHandler := newStreamHandler(opts.PubSubSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		// The stream is long lived, therefore it's not subject to the request
		// timeout.
		r.Get("/events/stream", streamHandler.streamEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Route("/deposits", func(r chi.Router) {
				r.Post("/", vaultHandler.deposit)
				r.Get("/{id}", vaultHandler.getDeposit)
				r.Get("/{id}/estimate", vaultHandler.estimate)
				r.Post("/{id}/claim", vaultHandler.claim)
				r.Post("/{id}/recover", vaultHandler.recover)
			})
			r.Get("/depositors/{addr}/active", vaultHandler.activeDeposits)
			r.Get("/recipients/{addr}/claimable", vaultHandler.claimableDeposits)
			r.Get("/events", vaultHandler.listEvents)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/policy", adminHandler.getPolicy)
				r.Post("/whitelist", adminHandler.setWhitelisted)
				r.Post("/whitelist-status", adminHandler.setWhitelistEnabled)
				r.Post("/recovery-delay", adminHandler.setRecoveryDelay)
				r.Post("/delegate", adminHandler.setDelegate)
				r.Post("/config-source", adminHandler.setConfigSource)
				r.Post("/owner", adminHandler.transferOwnership)
			})

			r.Route("/webhooks", func(r chi.Router) {
				r.Post("/", webhookHandler.addWebhook)
				r.Get("/", webhookHandler.listWebhooks)
				r.Delete("/{id}", webhookHandler.removeWebhook)
			})

			if opts.SandboxBook != nil {
				sandboxHandler := newSandboxHandler(opts.SandboxBook)
				r.Route("/sandbox", func(r chi.Router) {
					r.Post("/mint", sandboxHandler.mint)
					r.Post("/approve", sandboxHandler.approve)
					r.Get("/balance", sandboxHandler.balance)
				})
			}
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
