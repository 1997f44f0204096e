package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/policlinic/clinic/internal/config"
	"github.com/policlinic/clinic/internal/domain/scheduling"
	"github.com/policlinic/clinic/internal/platform/auth"
	"github.com/policlinic/clinic/internal/platform/cache"
	"github.com/policlinic/clinic/internal/platform/db"
	"github.com/policlinic/clinic/internal/platform/middleware"
	"github.com/policlinic/clinic/internal/platform/reporting"
	"github.com/policlinic/clinic/internal/platform/telemetry"
)

const (
	version        = "0.1.0"
	requestTimeout = 30 * time.Second
	dateLayout     = "2006-01-02"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Clinic appointments and cancellations reporting server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(seedCmd())
	return rootCmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig reads and validates the environment configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.Migrations()).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.Migrations()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// reportFlags mirrors the query string accepted by the HTTP endpoints.
type reportFlags struct {
	from           string
	to             string
	groupBy        string
	specialty      string
	professionalID int64
	page           int
	pageSize       int
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.groupBy, "group-by", string(reporting.GroupByDay), "Bucket size: day, week or month")
	cmd.Flags().StringVar(&f.specialty, "specialty", "", "Only include this specialty")
	cmd.Flags().Int64Var(&f.professionalID, "professional", 0, "Only include this professional")
	cmd.Flags().IntVar(&f.page, "page", 1, "Series page")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "Series page size, 0 returns every period")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (f *reportFlags) params() (reporting.Params, error) {
	from, err := time.Parse(dateLayout, f.from)
	if err != nil {
		return reporting.Params{}, fmt.Errorf("invalid --from %q: %w", f.from, err)
	}
	to, err := time.Parse(dateLayout, f.to)
	if err != nil {
		return reporting.Params{}, fmt.Errorf("invalid --to %q: %w", f.to, err)
	}
	groupBy, err := reporting.ParseGroupBy(f.groupBy)
	if err != nil {
		return reporting.Params{}, err
	}
	p := reporting.Params{
		From:     from,
		To:       to,
		GroupBy:  groupBy,
		Page:     f.page,
		PageSize: f.pageSize,
	}
	if f.specialty != "" {
		s := f.specialty
		p.Specialty = &s
	}
	if f.professionalID > 0 {
		id := f.professionalID
		p.ProfessionalID = &id
	}
	return p, nil
}

// operator runs CLI reports with clinic-wide visibility.
var operator = auth.Caller{UserID: "cli", Roles: []string{auth.RoleAdmin}}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report as JSON",
	}

	kinds := []struct {
		use   string
		short string
		run   func(ctx context.Context, svc *reporting.Service, p reporting.Params) (any, error)
	}{
		{"appointments", "Appointments report", func(ctx context.Context, svc *reporting.Service, p reporting.Params) (any, error) {
			return svc.AppointmentReport(ctx, operator, p)
		}},
		{"cancellations", "Cancellations report", func(ctx context.Context, svc *reporting.Service, p reporting.Params) (any, error) {
			return svc.CancellationReport(ctx, operator, p)
		}},
	}

	for _, k := range kinds {
		flags := &reportFlags{}
		sub := &cobra.Command{
			Use:   k.use,
			Short: k.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := flags.params()
				if err != nil {
					return err
				}
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				ctx := cmd.Context()
				pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
				if err != nil {
					return err
				}
				defer pool.Close()

				logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
				svc, err := newReportingService(cfg, newSchedulingService(pool), cache.Nop{}, logger)
				if err != nil {
					return err
				}
				report, err := k.run(ctx, svc, p)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			},
		}
		flags.register(sub)
		cmd.AddCommand(sub)
	}
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seedCmd() *cobra.Command {
	var (
		seedCfg scheduling.SeedConfig
		from    string
		to      string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake professionals, patients and appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if seedCfg.From, err = time.Parse(dateLayout, from); err != nil {
				return fmt.Errorf("invalid --from %q: %w", from, err)
			}
			if seedCfg.To, err = time.Parse(dateLayout, to); err != nil {
				return fmt.Errorf("invalid --to %q: %w", to, err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			schedSvc := newSchedulingService(pool)
			if cfg.RedisURL != "" {
				rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
				if err != nil {
					logger.Warn().Err(err).Msg("redis unavailable, cached reports will expire on their TTL")
				} else {
					defer rdb.Close()
					reportSvc, err := newReportingService(cfg, schedSvc, cache.NewRedisCache(rdb, cfg.ReportCacheTTL), logger)
					if err != nil {
						return err
					}
					schedSvc.SetReportInvalidator(reportSvc)
				}
			}

			res, err := scheduling.NewSeeder(schedSvc, logger).Seed(ctx, seedCfg)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	now := time.Now()
	cmd.Flags().IntVar(&seedCfg.Professionals, "professionals", 8, "Professionals to create")
	cmd.Flags().IntVar(&seedCfg.Patients, "patients", 50, "Patients to create")
	cmd.Flags().IntVar(&seedCfg.Appointments, "appointments", 500, "Appointments to create")
	cmd.Flags().Uint64Var(&seedCfg.Seed, "seed", 0, "Random seed, 0 picks one")
	cmd.Flags().StringVar(&from, "from", now.AddDate(0, -6, 0).Format(dateLayout), "Earliest appointment day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", now.Format(dateLayout), "Latest appointment day (YYYY-MM-DD)")
	return cmd
}

func newSchedulingService(pool *pgxpool.Pool) *scheduling.Service {
	return scheduling.NewService(
		scheduling.NewProfessionalRepoPG(pool),
		scheduling.NewPatientRepoPG(pool),
		scheduling.NewAppointmentRepoPG(pool),
		scheduling.NewCancellationRepoPG(pool),
		scheduling.PoolTx(pool),
	)
}

func newReportingService(cfg *config.Config, source reporting.Source, c cache.Cache, logger zerolog.Logger) (*reporting.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return reporting.NewService(source, c, reporting.ServiceConfig{
		Location:      loc,
		RollingMonths: cfg.ReportRollingMonths,
	}, logger), nil
}

// authMiddleware picks the development identity when no signing key is set
// in development, and JWT validation otherwise.
func authMiddleware(cfg *config.Config, logger zerolog.Logger) echo.MiddlewareFunc {
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		logger.Warn().Msg("no AUTH_SIGNING_KEY set, every request runs as the development admin")
		return auth.DevAuthMiddleware()
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
	})
}

// newServer builds the echo instance with every route registered.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, reportSvc *reporting.Service, schedSvc *scheduling.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.RequestTimeout(requestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	apiV1 := e.Group("/api/v1", authMiddleware(cfg, logger))
	reporting.NewHandler(reportSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedSvc).RegisterRoutes(apiV1)
	return e
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "clinic-server",
		ServiceVersion: version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var reportCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, report cache disabled")
		} else {
			defer rdb.Close()
			reportCache = cache.NewRedisCache(rdb, cfg.ReportCacheTTL)
			logger.Info().Dur("ttl", cfg.ReportCacheTTL).Msg("report cache enabled")
		}
	}

	schedSvc := newSchedulingService(pool)
	reportSvc, err := newReportingService(cfg, schedSvc, reportCache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid report timezone")
	}
	schedSvc.SetReportInvalidator(reportSvc)

	e := newServer(cfg, logger, pool, reportSvc, schedSvc)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
