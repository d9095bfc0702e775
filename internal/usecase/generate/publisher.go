package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/observability/logging"
)

// Publisher receives finished payloads. Rendering and storage live behind it.
type Publisher interface {
	Publish(ctx context.Context, payload *entity.Payload) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, payload *entity.Payload) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, payload *entity.Payload) error {
	return f(ctx, payload)
}

// LogPublisher writes a one-line summary of each payload.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish logs the payload summary. It never fails.
func (p LogPublisher) Publish(ctx context.Context, payload *entity.Payload) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logging.WithRunID(ctx, logger).Info("output ready",
		slog.String("output", string(payload.Kind)),
		slog.String("date_from", payload.DateFrom),
		slog.String("date_to", payload.DateTo),
		slog.Bool("degraded", payload.Degraded),
		slog.Any("illustrative", payload.IllustrativeSections()),
		slog.Int("sessions", payload.Sessions.Len()),
		slog.Int("committees", payload.Committees.Len()),
		slog.Int("documents", payload.Documents.Len()),
		slog.Int("questions", payload.Questions.Len()),
		slog.Int("votes", payload.Votes.Len()),
		slog.Int("meps", payload.MEPs.Len()))
	return nil
}

// FilePublisher writes each payload as indented JSON to
// <Dir>/<output>-<date_from>.json, replacing any previous file.
type FilePublisher struct {
	Dir string
}

// Publish writes the payload file atomically via a temporary file.
func (p FilePublisher) Publish(_ context.Context, payload *entity.Payload) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	name := filepath.Join(p.Dir, fmt.Sprintf("%s-%s.json", payload.Kind, payload.DateFrom))
	tmp, err := os.CreateTemp(p.Dir, ".payload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close payload: %w", err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("rename payload: %w", err)
	}
	return nil
}

// MultiPublisher publishes to every publisher in order and stops at the
// first failure.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, payload *entity.Payload) error {
	for _, p := range m {
		if err := p.Publish(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}
