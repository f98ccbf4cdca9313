// Package session binds an open archive to its operation dispatcher
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/caltus/ggpk-explorer-sub001/pkg/archive"
	"github.com/caltus/ggpk-explorer-sub001/pkg/operation"
)

// 🎮 Session is one open archive plus the dispatcher that owns it.
//
// Every read goes through the dispatcher, so the archive handle is only ever
// touched by the worker goroutine. Sessions hand out typed handles; callers
// await them, cancel them, or drop them.
type Session struct {
	arch    *archive.Archive
	disp    *operation.Dispatcher
	regions []Region
}

// 🔧 Options contains configuration for opening a session
type Options struct {
	// ArchivePath is the path to the GGPK archive file
	ArchivePath string
	// QueueName names the dispatcher in logs, defaults to the archive path
	QueueName string
	// Regions are named byte ranges of interest within the archive
	Regions []Region
	// DrainTimeout bounds how long Close waits for the in-flight operation.
	// Zero means wait indefinitely. When the bound expires the archive is
	// closed underneath the straggler, which then fails on its next read.
	DrainTimeout time.Duration
}

// 🏭 Open opens the archive and starts its dispatcher.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.ArchivePath == "" {
		return nil, errors.Errorf("archive path is required")
	}

	arch, err := archive.Open(opts.ArchivePath)
	if err != nil {
		return nil, errors.Errorf("opening session: %w", err)
	}

	name := opts.QueueName
	if name == "" {
		name = opts.ArchivePath
	}

	zerolog.Ctx(ctx).Debug().Str("archive", opts.ArchivePath).Msg("session opened")

	return &Session{
		arch:    arch,
		disp:    operation.NewDispatcher(ctx, name, operation.WithDrainTimeout(opts.DrainTimeout)),
		regions: opts.Regions,
	}, nil
}

// Dispatcher exposes the session's dispatcher for stats reporting.
func (s *Session) Dispatcher() *operation.Dispatcher {
	return s.disp
}

// 📊 StatAsync queues a stat of the archive and returns immediately.
func (s *Session) StatAsync() *operation.Handle[archive.Info] {
	return operation.Submit(s.disp, "stat", func(ctx context.Context) (archive.Info, error) {
		return s.arch.Stat()
	})
}

// 🔍 HeaderAsync queues a read of the archive's leading bytes.
func (s *Session) HeaderAsync() *operation.Handle[[]byte] {
	return operation.Submit(s.disp, "header", func(ctx context.Context) ([]byte, error) {
		return s.arch.Header()
	})
}

// 📖 ReadAsync queues a range read and returns immediately.
func (s *Session) ReadAsync(offset, length int64) *operation.Handle[[]byte] {
	return operation.Submit(s.disp, "read", func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return s.arch.ReadRange(offset, length)
	})
}

// Stat is the synchronous convenience over StatAsync.
func (s *Session) Stat(ctx context.Context) (archive.Info, error) {
	return s.StatAsync().Wait(ctx)
}

// Read is the synchronous convenience over ReadAsync.
func (s *Session) Read(ctx context.Context, offset, length int64) ([]byte, error) {
	return s.ReadAsync(offset, length).Wait(ctx)
}

// Close shuts down the dispatcher, mass-canceling anything still queued, then
// closes the archive. Submissions after Close resolve to a closed failure.
func (s *Session) Close() error {
	s.disp.Close()
	if err := s.arch.Close(); err != nil {
		return errors.Errorf("closing session: %w", err)
	}
	return nil
}
