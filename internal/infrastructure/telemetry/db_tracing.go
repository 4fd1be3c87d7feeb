package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the GORM tracing plugin
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // keep bound variables in db.statement; never in production
	SlowQueryThresh time.Duration
	DBSystem        string
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

// DBTracingConfigFrom maps the telemetry section onto a DBTracingConfig
func DBTracingConfigFrom(cfg config.TelemetryConfig, driver string) DBTracingConfig {
	system := "postgresql"
	if driver == "sqlite" {
		system = "sqlite"
	}
	return DBTracingConfig{
		Enabled:         cfg.Enabled && cfg.DBTraceEnabled,
		LogFullSQL:      cfg.DBLogFullSQL,
		SlowQueryThresh: cfg.DBSlowQueryThresh,
		DBSystem:        system,
	}
}

type queryStartKey struct{}

var tracedOperations = []string{"create", "query", "update", "delete", "row", "raw"}

type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// aroundOperation returns registration points just before and just after
// the gorm callback for op. The after point runs ahead of otelgorm's own
// after hook, which ends the span.
func aroundOperation(db *gorm.DB, op string) (callbackRegistrar, callbackRegistrar) {
	cb := db.Callback()
	gormName, otelAfter := "gorm:"+op, "otel:after_"+op
	switch op {
	case "create":
		return cb.Create().Before(gormName), cb.Create().After(gormName).Before(otelAfter)
	case "update":
		return cb.Update().Before(gormName), cb.Update().After(gormName).Before(otelAfter)
	case "delete":
		return cb.Delete().Before(gormName), cb.Delete().After(gormName).Before(otelAfter)
	case "row":
		return cb.Row().Before(gormName), cb.Row().After(gormName).Before(otelAfter)
	case "raw":
		return cb.Raw().Before(gormName), cb.Raw().After(gormName).Before(otelAfter)
	default:
		return cb.Query().Before(gormName), cb.Query().After(gormName).Before(otelAfter)
	}
}

// RegisterDBTracing installs otelgorm on db plus callbacks that mark slow
// and failed statements on the span
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		var elapsed time.Duration
		if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
			elapsed = time.Since(start)
		}
		annotateStatement(trace.SpanFromContext(ctx), tx.Statement.Table, tx.Statement.RowsAffected, tx.Error, elapsed, cfg.SlowQueryThresh)
	}

	for _, op := range tracedOperations {
		pre, post := aroundOperation(db, op)
		if err := pre.Register("ecat_timing:before_"+op, before); err != nil {
			return err
		}
		if err := post.Register("ecat_timing:after_"+op, after); err != nil {
			return err
		}
	}

	logger.Info("database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return nil
}

// annotateStatement records rows, table, error status and the slow-query
// marker on a recording span
func annotateStatement(span trace.Span, table string, rows int64, err error, elapsed, threshold time.Duration) {
	if span == nil || !span.IsRecording() {
		return
	}
	if rows >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	}
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if threshold > 0 && elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", threshold.Milliseconds())))
	}
}
