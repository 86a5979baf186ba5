package clerking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const saveTimeout = 10 * time.Second

// Autosaver coalesces bursts of draft edits into trailing-edge saves.
// Every queued edit restarts the debounce window; when the window
// lapses, the snapshot saved is whatever was queued LAST, looked up at
// fire time through the pending map rather than captured when the timer
// was armed. A stale timer can therefore never persist stale fields.
type Autosaver struct {
	drafts   DraftRepository
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingSave
	closed  bool
}

type pendingSave struct {
	timer *time.Timer
	draft *Draft
}

func NewAutosaver(drafts DraftRepository, debounce time.Duration, logger zerolog.Logger) *Autosaver {
	return &Autosaver{
		drafts:   drafts,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[uuid.UUID]*pendingSave),
	}
}

// Queue records d as the latest snapshot for its draft and restarts the
// debounce window. Only the last snapshot in a burst reaches storage.
func (a *Autosaver) Queue(d *Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if p, ok := a.pending[d.ID]; ok {
		p.draft = d
		p.timer.Reset(a.debounce)
		return
	}
	id := d.ID
	a.pending[id] = &pendingSave{
		draft: d,
		timer: time.AfterFunc(a.debounce, func() { a.fire(id) }),
	}
}

func (a *Autosaver) fire(id uuid.UUID) {
	a.mu.Lock()
	p, ok := a.pending[id]
	if ok {
		delete(a.pending, id)
	}
	a.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	// Failures are swallowed: the next edit queues a fresh snapshot and
	// retries naturally.
	if err := a.drafts.Save(ctx, p.draft); err != nil {
		a.logger.Warn().Err(err).Str("draft_id", id.String()).Msg("autosave failed")
	}
}

// Flush forces an immediate save of any pending snapshot for the draft.
// Unlike the timer path, failures are returned: callers flushing ahead
// of finalize need to know the write landed.
func (a *Autosaver) Flush(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	p, ok := a.pending[id]
	if ok {
		p.timer.Stop()
		delete(a.pending, id)
	}
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.drafts.Save(ctx, p.draft)
}

// Cancel drops any pending snapshot for the draft without saving.
func (a *Autosaver) Cancel(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pending[id]; ok {
		p.timer.Stop()
		delete(a.pending, id)
	}
}

// Close cancels every pending timer. Queued snapshots that have not
// fired are discarded, matching teardown with no partial save.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for id, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, id)
	}
}
