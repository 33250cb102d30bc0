package watcher

import (
	"context"
	"time"
)

// Debouncer merges bursts of change batches so a result file written in
// several steps triggers one reload.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A burst is flushed after
// quietPeriod without events, or maxWait after its first event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run keeps the latest change per path; a file written and then removed
// within one burst reports only the removal.
func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet   <-chan time.Time
		maxWait <-chan time.Time
		latest  = make(map[string]ChangeType)
		order   []string
	)

	flush := func() {
		quiet, maxWait = nil, nil
		if len(order) == 0 {
			return
		}

		log.Debug("flushing accumulated changes", "files", len(order))

		byType := make(map[ChangeType][]string)
		for _, path := range order {
			t := latest[path]
			byType[t] = append(byType[t], path)
		}
		latest = make(map[string]ChangeType)
		order = nil

		// Written first so reloads run before sessions are emptied
		for _, t := range []ChangeType{ChangeTypeWritten, ChangeTypeRemoved} {
			if len(byType[t]) == 0 {
				continue
			}
			select {
			case d.output <- ChangeEvent{Type: t, Paths: byType[t], Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			for _, path := range event.Paths {
				if _, seen := latest[path]; !seen {
					order = append(order, path)
				}
				latest[path] = event.Type
			}

			quiet = time.After(d.quietPeriod)
			if maxWait == nil {
				maxWait = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-maxWait:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
