package reporting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/policlinic/clinic/internal/platform/auth"
	"github.com/policlinic/clinic/internal/platform/cache"
	"github.com/policlinic/clinic/internal/platform/db"
	"github.com/policlinic/clinic/internal/platform/telemetry"
)

// ErrNoProfessionalScope is returned when a caller restricted to its own
// agenda is not linked to any professional.
var ErrNoProfessionalScope = errors.New("caller is not linked to a professional")

// FetchQuery bounds a record fetch. To is exclusive.
type FetchQuery struct {
	From           time.Time
	To             time.Time
	Specialty      *string
	ProfessionalID *int64
}

// Source loads raw records for a report. Implementations may return a
// *pgconn.PgError with SQLSTATE 42P01 when the backing table does not exist.
type Source interface {
	ListAppointments(ctx context.Context, q FetchQuery) ([]AppointmentRecord, error)
	ListCancellations(ctx context.Context, q FetchQuery) ([]CancellationRecord, error)
}

// ServiceConfig holds defaults applied to every request.
type ServiceConfig struct {
	Location      *time.Location
	RollingMonths int
}

// Service fetches records once per request and runs the report builders.
type Service struct {
	source Source
	cache  cache.Cache
	cfg    ServiceConfig
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewService wires the record source and report cache. A nil cache disables
// caching.
func NewService(source Source, c cache.Cache, cfg ServiceConfig, logger zerolog.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		source: source,
		cache:  c,
		cfg:    cfg,
		logger: logger.With().Str("component", "reporting").Logger(),
		tracer: telemetry.Tracer(),
	}
}

// prepare applies defaults and the caller's scope, then validates.
func (s *Service) prepare(caller auth.Caller, p Params) (Params, error) {
	if p.Location == nil {
		p.Location = s.cfg.Location
	}
	if p.RollingMonths <= 0 {
		p.RollingMonths = s.cfg.RollingMonths
	}
	if !caller.ClinicWide() {
		id := caller.ScopedProfessionalID()
		if id == nil {
			return p, ErrNoProfessionalScope
		}
		p.ProfessionalID = id
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Service) fetchQuery(p Params) FetchQuery {
	r := p.FetchRange()
	return FetchQuery{
		From:           r.From,
		To:             r.To.AddDate(0, 0, 1),
		Specialty:      p.Specialty,
		ProfessionalID: p.ProfessionalID,
	}
}

// AppointmentReport builds the appointments report for caller.
func (s *Service) AppointmentReport(ctx context.Context, caller auth.Caller, p Params) (*AppointmentReport, error) {
	p, err := s.prepare(caller, p)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "reporting.appointments", p)
	defer span.End()

	key := cacheKey("appointments", p)
	var cached AppointmentReport
	if s.lookup(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("report.cache_hit", true))
		return &cached, nil
	}

	records, err := s.source.ListAppointments(ctx, s.fetchQuery(p))
	if err != nil {
		if !db.IsUndefinedTable(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch appointments")
			return nil, fmt.Errorf("fetch appointments: %w", err)
		}
		s.logger.Warn().Err(err).Msg("appointments table missing, returning empty report")
		records = nil
	}
	span.SetAttributes(attribute.Int("report.records", len(records)))
	s.logger.Debug().Int("records", len(records)).Str("group_by", string(p.GroupBy)).Msg("building appointment report")

	report, err := BuildAppointmentReport(records, p)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, report)
	return report, nil
}

// CancellationReport builds the cancellations report for caller.
func (s *Service) CancellationReport(ctx context.Context, caller auth.Caller, p Params) (*CancellationReport, error) {
	p, err := s.prepare(caller, p)
	if err != nil {
		return nil, err
	}
	ctx, span := s.startSpan(ctx, "reporting.cancellations", p)
	defer span.End()

	key := cacheKey("cancellations", p)
	var cached CancellationReport
	if s.lookup(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("report.cache_hit", true))
		return &cached, nil
	}

	records, err := s.source.ListCancellations(ctx, s.fetchQuery(p))
	if err != nil {
		if !db.IsUndefinedTable(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch cancellations")
			return nil, fmt.Errorf("fetch cancellations: %w", err)
		}
		s.logger.Warn().Err(err).Msg("cancellations table missing, returning empty report")
		records = nil
	}
	span.SetAttributes(attribute.Int("report.records", len(records)))
	s.logger.Debug().Int("records", len(records)).Str("group_by", string(p.GroupBy)).Msg("building cancellation report")

	report, err := BuildCancellationReport(records, p)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, report)
	return report, nil
}

// InvalidateReports drops every cached report. It is called after records
// change; failures are logged because the next TTL expiry heals them anyway.
func (s *Service) InvalidateReports(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

func (s *Service) startSpan(ctx context.Context, name string, p Params) (context.Context, trace.Span) {
	r := p.Range()
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("report.group_by", string(p.GroupBy)),
		attribute.String("report.from", r.From.Format(dateLayout)),
		attribute.String("report.to", r.To.Format(dateLayout)),
	))
}

// lookup treats cache failures as misses.
func (s *Service) lookup(ctx context.Context, key string, dst any) bool {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		return false
	}
	return hit
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}

// cacheKey identifies a report by kind and every parameter that shapes it.
func cacheKey(kind string, p Params) string {
	r := p.Range()
	parts := []string{
		kind,
		r.From.Format(dateLayout),
		r.To.Format(dateLayout),
		string(p.GroupBy),
		p.location().String(),
		strconv.Itoa(p.rollingMonths()),
		strconv.Itoa(p.Page),
		strconv.Itoa(p.PageSize),
	}
	if p.Specialty != nil {
		parts = append(parts, "esp="+strings.ToLower(*p.Specialty))
	}
	if p.ProfessionalID != nil {
		parts = append(parts, "prof="+strconv.FormatInt(*p.ProfessionalID, 10))
	}
	return strings.Join(parts, ":")
}
