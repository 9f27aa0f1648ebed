// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircbot

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/c2nes/ircbot/lib/ircclient"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// QuitSignals is the list of signals we quit on
	QuitSignals = []os.Signal{syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT}

	// ErrConnectionLost is returned by RunOnce when the server goes away.
	ErrConnectionLost = errors.New("connection lost")
)

const (
	minReconnectDelay = 5 * time.Second
	maxReconnectDelay = 5 * time.Minute
	quitTimeout       = 10 * time.Second
)

// Manager wires the config, datastore, components and server connection
// together.
type Manager struct {
	Config   *Config
	Ds       DataStoreInterface
	Log      zerolog.Logger
	Bus      *HookEmitter
	Registry *prometheus.Registry

	// Dialer overrides the config's transport. Used by tests.
	Dialer ircclient.Dialer

	metrics *ircclient.Metrics

	mu     sync.Mutex
	server *ServerConnection
}

// NewManager creates a new bot from the given config and datastore.
func NewManager(config *Config, ds DataStoreInterface, log zerolog.Logger) *Manager {
	return &Manager{
		Config: config,
		Ds:     ds,
		Log:    log,
		Bus:    MakeHookEmitter(),
	}
}

// Server returns the current server connection, or nil between connections.
func (m *Manager) Server() *ServerConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server
}

// Profile returns the stored profile merged over the config identity.
func (m *Manager) Profile() (*Profile, error) {
	network, err := NetworkName(m.Config.Network)
	if err != nil {
		return nil, err
	}

	profile, err := m.Ds.GetProfile(network)
	if errors.Is(err, ErrNotFound) {
		profile, err = &Profile{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading profile")
	}
	profile.Network = network

	// set default values
	id := m.Config.Identity
	if profile.Nick == "" {
		profile.Nick = id.Nick
	}
	if profile.FallbackNick == "" {
		profile.FallbackNick = id.FallbackNick
	}
	if profile.Username == "" {
		profile.Username = id.Username
	}
	if profile.Realname == "" {
		profile.Realname = id.Realname
	}
	if profile.Password == "" {
		profile.Password = id.Password
	}
	return profile, nil
}

func (m *Manager) setupMetrics() error {
	if m.Registry != nil {
		return nil
	}

	m.Registry = prometheus.NewRegistry()
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := ircclient.NewMetrics(m.Registry)
	if err != nil {
		return errors.Wrap(err, "registering metrics")
	}
	m.metrics = metrics
	return nil
}

// Run connects and keeps the bot connected until ctx ends or a quit signal
// arrives, reconnecting with backoff when the connection drops.
func (m *Manager) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, QuitSignals...)
	defer stop()

	if err := m.setupMetrics(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if m.Config.Metrics != "" {
		srv := &http.Server{
			Addr:              m.Config.Metrics,
			Handler:           promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			m.Log.Info().Str("address", srv.Addr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), quitTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		delay := minReconnectDelay
		for {
			err := m.RunOnce(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrConnectionLost) {
				delay = minReconnectDelay
			}

			m.Log.Warn().Err(err).Dur("delay", delay).Msg("disconnected, reconnecting")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}

			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
		}
	})

	return g.Wait()
}

// RunOnce makes one connection and serves it until ctx ends, when it quits
// cleanly and returns nil, or until the connection drops.
func (m *Manager) RunOnce(ctx context.Context) error {
	profile, err := m.Profile()
	if err != nil {
		return err
	}

	dialer := m.Dialer
	if dialer == nil {
		dialer = m.Config.Dialer()
	}

	sc := NewServerConnection(m, dialer, *profile)
	defer sc.Client.Close()

	m.Log.Info().Str("network", profile.Network).Str("nick", profile.Nick).Msg("connecting")
	if err := sc.Connect(ctx); err != nil {
		return errors.Wrap(err, "connecting")
	}

	m.mu.Lock()
	m.server = sc
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.server = nil
		m.mu.Unlock()
	}()

	sc.Start(ctx)

	select {
	case <-sc.Client.Closed():
		return ErrConnectionLost
	case <-ctx.Done():
	}

	quitCtx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	defer cancel()
	if err := sc.Client.Quit(quitCtx, Ver); err != nil && !errors.Is(err, ircclient.ErrNotConnected) {
		return errors.Wrap(err, "quitting")
	}
	return nil
}
