package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
)

// ErrSecondarySink wraps failures of sinks that run after the primary one.
// The document has still been delivered to the primary sink.
var ErrSecondarySink = errors.New("secondary output failed")

// Publisher delivers the encoded document somewhere.
type Publisher interface {
	Publish(ctx context.Context, document string) error
}

// Writer prints the document followed by a newline.
type Writer struct {
	W io.Writer
}

func (p Writer) Publish(ctx context.Context, document string) error {
	if _, err := fmt.Fprintln(p.W, document); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// Clipboard copies the document to the system clipboard.
type Clipboard struct {
	write func(string) error
}

// ErrNoClipboard is returned when the system has no clipboard utility.
var ErrNoClipboard = errors.New("no clipboard utility available")

func NewClipboard() *Clipboard {
	return &Clipboard{write: func(text string) error {
		if clipboard.Unsupported {
			return ErrNoClipboard
		}
		return clipboard.WriteAll(text)
	}}
}

func (p *Clipboard) Publish(ctx context.Context, document string) error {
	if err := p.write(document); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}

// Notifier shows a desktop notification once the document is ready. The
// document itself is not part of the message.
type Notifier struct {
	Title   string
	Message string
	notify  func(title, message string, icon any) error
}

func NewNotifier(title, message string) *Notifier {
	return &Notifier{Title: title, Message: message, notify: beeep.Notify}
}

func (p *Notifier) Publish(ctx context.Context, document string) error {
	if err := p.notify(p.Title, p.Message, ""); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// File writes the document to Path, creating parent directories.
type File struct {
	Path string
}

func (p File) Publish(ctx context.Context, document string) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(p.Path, []byte(document+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", p.Path, err)
	}
	return nil
}

type namedPublisher struct {
	name string
	pub  Publisher
}

// Fanout delivers to a primary sink and then to any number of secondary
// sinks. A primary failure is returned as is and stops the fanout; secondary
// failures, including sinks skipped because ctx was canceled, are logged and
// returned together wrapped in ErrSecondarySink.
type Fanout struct {
	primary   Publisher
	secondary []namedPublisher
	logger    *slog.Logger
}

func NewFanout(primary Publisher, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fanout{primary: primary, logger: logger}
}

// Also registers a secondary sink under name.
func (f *Fanout) Also(name string, p Publisher) *Fanout {
	f.secondary = append(f.secondary, namedPublisher{name: name, pub: p})
	return f
}

func (f *Fanout) Publish(ctx context.Context, document string) error {
	if err := f.primary.Publish(ctx, document); err != nil {
		return err
	}

	var errs []error
	for _, s := range f.secondary {
		if err := ctx.Err(); err != nil {
			f.logger.Warn("output sink skipped", "sink", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		if err := s.pub.Publish(ctx, document); err != nil {
			f.logger.Warn("output sink failed", "sink", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		f.logger.Debug("output sink done", "sink", s.name, "bytes", len(document))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSecondarySink, errors.Join(errs...))
	}
	return nil
}
