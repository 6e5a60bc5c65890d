// Package processor runs one pass over the unread application emails.
package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bassamadnan/mailfilter/candidate"
	"github.com/bassamadnan/mailfilter/message"
)

// ErrNoAttachments marks a message whose record was discarded because it carried no files.
var ErrNoAttachments = errors.New("no attachments")

// Mailbox is the provider side of a run.
type Mailbox interface {
	Search(ctx context.Context, subject string, limit int64) ([]string, error)
	FetchMessage(ctx context.Context, id string) (*message.Message, error)
	FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
	MarkRead(ctx context.Context, id string) error
}

type RecordSink interface {
	Append(rec candidate.Record) error
}

type FileSink interface {
	Save(candidateName, filename string, data []byte) (string, error)
}

// Journal receives one line per milestone and per message.
type Journal interface {
	Success(msg string)
	Error(msg string)
}

type Deps struct {
	Mailbox Mailbox
	Records RecordSink
	Files   FileSink
	Journal Journal
	Logger  *zap.Logger
}

type Options struct {
	Subject   string
	BatchSize int64
	Labels    candidate.Labels
	// DryRun extracts records without writing the spreadsheet, saving files or marking messages.
	DryRun bool
}

type Outcome int

const (
	Processed Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Summary counts what happened to the messages found by the search.
type Summary struct {
	Found     int
	Processed int
	Skipped   int
	Failed    int
	Records   []candidate.Record
}

type Processor struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Processor {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Labels == (candidate.Labels{}) {
		opts.Labels = candidate.DefaultLabels
	}
	return &Processor{deps: deps, opts: opts}
}

// Run searches once and handles every message found. Only a failed search
// (or a cancelled context) is returned as an error; per-message failures are
// journalled, counted and leave the message unread.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	log := p.deps.Logger

	ids, err := p.deps.Mailbox.Search(ctx, p.opts.Subject, p.opts.BatchSize)
	if err != nil {
		p.deps.Journal.Error(fmt.Sprintf("error searching emails: %v", err))
		return sum, fmt.Errorf("searching emails: %w", err)
	}
	sum.Found = len(ids)
	if len(ids) == 0 {
		p.deps.Journal.Success("no application emails found")
		return sum, nil
	}
	p.deps.Journal.Success(fmt.Sprintf("%d application emails found", len(ids)))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			p.deps.Journal.Error(fmt.Sprintf("run interrupted before message %s: %v", id, err))
			return sum, err
		}

		rec, outcome, saved, err := p.process(ctx, id)
		log.Debug("message handled", zap.String("id", id), zap.Stringer("outcome", outcome), zap.Error(err))

		switch outcome {
		case Processed:
			sum.Processed++
			sum.Records = append(sum.Records, rec)
			p.deps.Journal.Success(fmt.Sprintf("message %s processed: %s, %d attachment(s) saved", id, rec.Name, saved))
		case Skipped:
			sum.Skipped++
			p.deps.Journal.Error(fmt.Sprintf("message %s: %v, record for %s discarded", id, err, rec.Name))
		default:
			sum.Failed++
			p.deps.Journal.Error(fmt.Sprintf("message %s: %v", id, err))
		}
	}

	p.deps.Journal.Success("emails processed successfully")
	return sum, nil
}

func (p *Processor) process(ctx context.Context, id string) (candidate.Record, Outcome, int, error) {
	msg, err := p.deps.Mailbox.FetchMessage(ctx, id)
	if err != nil {
		return candidate.Record{}, Failed, 0, err
	}

	body := message.ExtractBody(msg.Payload)
	atts := message.ExtractAttachments(msg.Payload)

	rec, err := candidate.Extract(body, p.opts.Labels)
	if err != nil {
		return rec, Failed, 0, err
	}

	if len(atts) == 0 {
		if !p.opts.DryRun {
			if err := p.deps.Mailbox.MarkRead(ctx, id); err != nil {
				return rec, Failed, 0, err
			}
		}
		return rec, Skipped, 0, ErrNoAttachments
	}

	if p.opts.DryRun {
		return rec, Processed, 0, nil
	}

	if err := p.deps.Records.Append(rec); err != nil {
		return rec, Failed, 0, fmt.Errorf("appending record: %w", err)
	}

	saved := 0
	for _, att := range atts {
		data, err := p.deps.Mailbox.FetchAttachment(ctx, id, att.AttachmentID)
		if err != nil {
			return rec, Failed, saved, err
		}
		path, err := p.deps.Files.Save(rec.Name, att.Filename, data)
		if err != nil {
			return rec, Failed, saved, fmt.Errorf("saving attachment: %w", err)
		}
		p.deps.Logger.Debug("attachment saved", zap.String("id", id), zap.String("path", path))
		saved++
	}

	if err := p.deps.Mailbox.MarkRead(ctx, id); err != nil {
		return rec, Failed, saved, err
	}
	return rec, Processed, saved, nil
}
