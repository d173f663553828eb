package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	api "github.com/crazy0629/Projitt-HR-Management-sub001/internal/api/http"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/assignment"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/audit"
	auth "github.com/crazy0629/Projitt-HR-Management-sub001/internal/auth/middleware"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/config"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/logging"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/metrics"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/reporting"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().Bool("access-log", false, "log every request")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.HTTPAddr = v
	}
	accessLog, _ := cmd.Flags().GetBool("access-log")

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	var tests definition.Store = definition.NewSQLStore(d)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, definition cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			tests = definition.NewCachedStore(tests, definition.NewRedisCache(rdb), cfg.DefinitionCacheTTL, log)
			log.Info("definition cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.DefinitionCacheTTL)
		}
	}

	sink, closer, err := auditSink(cfg, d, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := []assignment.Option{
		assignment.WithLogger(log),
		assignment.WithAuditSink(sink),
	}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
		opts = append(opts, assignment.WithMetrics(metrics.New(reg)))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	router := api.NewRouter(api.Deps{
		Tests:       tests,
		Assignments: assignment.NewService(d, tests, opts...),
		Reports:     reporting.New(d),
		Auth:        auth.NewAuthService(cfg.AuthHMACSecret),
		Admin:       auth.Admin{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		CORSOrigins: cfg.CORSOrigins,
		Ping:        d.Ping,
		Metrics:     metricsHandler,
		AccessLog:   accessLog,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "db", d.Driver, "audit", cfg.AuditSink)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// auditSink builds the sink named by AUDIT_SINK. The amqp sink also persists
// to SQL so that the local trail stays complete when the broker is down.
func auditSink(cfg config.Config, d *db.DB, log *slog.Logger) (audit.Sink, io.Closer, error) {
	switch cfg.AuditSink {
	case "", "sql":
		return audit.NewSQLSink(d.SQL), nopCloser{}, nil
	case "log":
		return audit.LogSink{Log: log}, nopCloser{}, nil
	case "amqp":
		if cfg.AMQPURL == "" {
			return nil, nil, errors.New("AUDIT_SINK=amqp requires AMQP_URL")
		}
		pub, err := audit.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return nil, nil, err
		}
		return audit.Multi{audit.NewSQLSink(d.SQL), pub}, pub, nil
	default:
		return nil, nil, fmt.Errorf("unknown AUDIT_SINK %q", cfg.AuditSink)
	}
}
