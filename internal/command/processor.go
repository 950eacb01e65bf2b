package command

import (
	"context"

	"github.com/nerrad567/alpha2-bridge/internal/state"
)

// Sources recorded in the journal.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// Journal records applied changes for later inspection.
type Journal interface {
	Record(ctx context.Context, source string, changes []Change) error
}

// Processor runs command documents against a Store: parse, apply inside a
// single store transaction, then report diagnostics and journal changes.
type Processor struct {
	store   *state.Store
	applier *Applier
	diag    Diagnostics
	journal Journal
	logger  Logger
}

// NewProcessor creates a processor for store.
func NewProcessor(store *state.Store) *Processor {
	return &Processor{
		store:   store,
		applier: NewApplier(),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the processor and its applier.
func (p *Processor) SetLogger(logger Logger) {
	p.logger = logger
	p.applier.SetLogger(logger)
}

// SetDiagnostics sets where ignored references are reported.
func (p *Processor) SetDiagnostics(d Diagnostics) {
	p.diag = d
}

// SetJournal sets the change journal.
func (p *Processor) SetJournal(j Journal) {
	p.journal = j
}

// Process parses body and executes it.
//
// Returns a *ParseError or *ValidationError without touching the state
// when the document is rejected as a whole. Otherwise returns the Result,
// whose Errors hold field-level failures.
func (p *Processor) Process(ctx context.Context, source string, body []byte) (*Result, error) {
	rec, err := Parse(body)
	if err != nil {
		return nil, err
	}
	if rec.Empty() {
		return nil, &ValidationError{Reason: "no recognised command elements"}
	}
	return p.Execute(ctx, source, rec)
}

// Execute applies rec in one store transaction. Fields that were accepted
// are persisted even when others failed.
func (p *Processor) Execute(ctx context.Context, source string, rec *Record) (*Result, error) {
	p.logger.Debug("applying command", "source", source, "record", rec.describe())

	var res *Result
	_, err := p.store.Update(ctx, func(dev *state.Device) error {
		res = p.applier.Apply(dev, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ignored := range res.Ignored {
		if p.diag != nil {
			p.diag.Report(ctx, ignored)
		}
	}
	for _, fieldErr := range res.Errors {
		p.logger.Warn("command field rejected", "source", source, "error", fieldErr)
	}

	if p.journal != nil && len(res.Changes) > 0 {
		if err := p.journal.Record(ctx, source, res.Changes); err != nil {
			p.logger.Error("failed to journal command", "source", source, "error", err)
		}
	}

	return res, nil
}
