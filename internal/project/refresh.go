package project

import (
	"context"
	"errors"

	"github.com/lambila-hdl/lambila/internal/indexer"
)

var (
	// ErrRefreshInFlight is returned by Refresh while a batch is running.
	ErrRefreshInFlight = errors.New("refresh already in progress")
	// ErrNoPath is returned by Save for a project that was never saved.
	ErrNoPath = errors.New("project has no file path")
)

// Batch is one running refresh.
type Batch struct {
	total    int
	progress chan int
	done     chan struct{}
	result   *indexer.Result
	err      error
}

func newBatch(total int) *Batch {
	return &Batch{
		total: total,
		// one slot per file so the worker never waits on a slow reader
		progress: make(chan int, total),
		done:     make(chan struct{}),
	}
}

// Total is the number of files in the batch.
func (b *Batch) Total() int {
	return b.total
}

// Progress delivers the number of files parsed so far after each file. It
// is closed when the batch ends.
func (b *Batch) Progress() <-chan int {
	return b.progress
}

// Done is closed when the batch ends.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch ends. The result is non-nil even when err is,
// unless the snapshot could not be built at all.
func (b *Batch) Wait() (*indexer.Result, error) {
	<-b.done
	return b.result, b.err
}

// Refresh parses the current file list on a background goroutine. Only one
// batch runs at a time. When it ends the project's design is replaced by the
// new one, including after a parse failure.
func (p *Project) Refresh(ctx context.Context) (*Batch, error) {
	p.mu.Lock()
	if p.batch != nil {
		p.mu.Unlock()
		return nil, ErrRefreshInFlight
	}
	files := append([]string(nil), p.files...)
	b := newBatch(len(files))
	p.batch = b
	idx := &indexer.Indexer{
		Config: p.Config,
		Log:    p.log,
		Root:   p.dir(),
		Progress: func(done, _ int) {
			b.progress <- done
		},
	}
	p.mu.Unlock()

	go func() {
		res, err := idx.Run(ctx, files)

		p.mu.Lock()
		if res != nil {
			p.design = res.Design
			p.last = res
		}
		p.batch = nil
		p.mu.Unlock()

		b.result, b.err = res, err
		close(b.progress)
		close(b.done)
	}()

	return b, nil
}

// Refreshing reports whether a batch is running.
func (p *Project) Refreshing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batch != nil
}
