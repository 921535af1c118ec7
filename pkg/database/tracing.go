package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Oldhoon/accessible-journeys/pkg/database"

// QueryDuration observes every traced statement, labelled by table and verb.
var QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "db_query_duration_seconds",
	Help:    "Duration of traced database statements",
	Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
}, []string{"table", "operation", "outcome"})

type slowQueryLog struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQueries atomic.Pointer[slowQueryLog]

// SetSlowQueryLogging logs statements slower than threshold at warn level.
// A zero threshold or nil logger turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQueries.Store(nil)
		return
	}
	slowQueries.Store(&slowQueryLog{threshold: threshold, logger: logger})
}

// splitOperation splits "reports.create" into its table and verb. Names
// without a dot have no table.
func splitOperation(operation string) (table, verb string) {
	if i := strings.IndexByte(operation, '.'); i > 0 {
		return operation[:i], operation[i+1:]
	}
	return "", operation
}

// TraceQuery starts a client span for one statement and returns the function
// that ends it:
//
//	ctx, end := database.TraceQuery(ctx, "reports.list_by_location", query)
//	defer func() { end(err) }()
//
// pgx.ErrNoRows ends the span without an error status since lookups miss
// routinely.
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	table, verb := splitOperation(operation)

	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", verb),
		attribute.String("db.statement", statement),
	}
	if table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", table))
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		outcome := "ok"
		switch {
		case err == nil:
		case errors.Is(err, pgx.ErrNoRows):
			outcome = "no_rows"
			span.SetAttributes(attribute.Bool("db.no_rows", true))
		default:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		QueryDuration.WithLabelValues(table, verb, outcome).Observe(elapsed.Seconds())

		slow := slowQueries.Load()
		if slow == nil || elapsed < slow.threshold {
			return
		}
		fields := []any{
			slog.String("operation", operation),
			slog.String("statement", statement),
			slog.Duration("duration", elapsed),
		}
		if outcome == "error" {
			fields = append(fields, slog.String("error", err.Error()))
		}
		slow.logger.WarnContext(ctx, "slow query detected", fields...)
	}
}
