package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/appstore_gateway/internal/logging"
)

// Recorder receives one observation per backend call.
type Recorder interface {
	RecordBackendCall(store, operation string, duration time.Duration, err error)
}

type instrumented struct {
	os       OS
	next     Backend
	recorder Recorder
	logger   *logging.Logger
}

// Instrument wraps next so that every call is timed, counted and logged.
func Instrument(os OS, next Backend, recorder Recorder, logger *logging.Logger) Backend {
	return &instrumented{os: os, next: next, recorder: recorder, logger: logger}
}

func (i *instrumented) observe(ctx context.Context, operation string, start time.Time, err error) {
	duration := time.Since(start)
	if i.recorder != nil {
		i.recorder.RecordBackendCall(i.os.String(), operation, duration, err)
	}
	if i.logger == nil {
		return
	}

	entry := i.logger.WithContext(ctx).WithFields(logrus.Fields{
		"store":       i.os.String(),
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("backend call failed")
		return
	}
	entry.Debug("backend call")
}

func (i *instrumented) Search(ctx context.Context, term string, filters Filters) (out []Record, err error) {
	defer func(start time.Time) { i.observe(ctx, "search", start, err) }(time.Now())
	return i.next.Search(ctx, term, filters)
}

func (i *instrumented) Suggest(ctx context.Context, term string) (out []string, err error) {
	defer func(start time.Time) { i.observe(ctx, "suggest", start, err) }(time.Now())
	return i.next.Suggest(ctx, term)
}

func (i *instrumented) List(ctx context.Context, filters Filters) (out []Record, err error) {
	defer func(start time.Time) { i.observe(ctx, "list", start, err) }(time.Now())
	return i.next.List(ctx, filters)
}

func (i *instrumented) App(ctx context.Context, id string, filters Filters) (out Record, err error) {
	defer func(start time.Time) { i.observe(ctx, "app", start, err) }(time.Now())
	return i.next.App(ctx, id, filters)
}

func (i *instrumented) Similar(ctx context.Context, id string, filters Filters) (out []Record, err error) {
	defer func(start time.Time) { i.observe(ctx, "similar", start, err) }(time.Now())
	return i.next.Similar(ctx, id, filters)
}

func (i *instrumented) Reviews(ctx context.Context, id string, page int, filters Filters) (out []Record, err error) {
	defer func(start time.Time) { i.observe(ctx, "reviews", start, err) }(time.Now())
	return i.next.Reviews(ctx, id, page, filters)
}

func (i *instrumented) Developer(ctx context.Context, devID string, filters Filters) (out []Record, err error) {
	defer func(start time.Time) { i.observe(ctx, "developer", start, err) }(time.Now())
	return i.next.Developer(ctx, devID, filters)
}

func (i *instrumented) DataSafety(ctx context.Context, id string, filters Filters) (out any, err error) {
	defer func(start time.Time) { i.observe(ctx, "datasafety", start, err) }(time.Now())
	return i.next.DataSafety(ctx, id, filters)
}

func (i *instrumented) Permissions(ctx context.Context, id string, filters Filters) (out []any, err error) {
	defer func(start time.Time) { i.observe(ctx, "permissions", start, err) }(time.Now())
	return i.next.Permissions(ctx, id, filters)
}

func (i *instrumented) Categories(ctx context.Context) (out []string, err error) {
	defer func(start time.Time) { i.observe(ctx, "categories", start, err) }(time.Now())
	return i.next.Categories(ctx)
}
