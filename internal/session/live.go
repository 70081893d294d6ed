package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude/topset/internal/models"
)

const flushTimeout = 5 * time.Second

// Saver persists a session snapshot.
type Saver interface {
	SaveSession(ctx context.Context, s models.WorkoutSession) error
}

// Live hosts one in-progress session. It runs two cooperative tasks: a
// debounced save after a quiet period, and a coarse duration tick. Both stop
// when the live session is closed, and nothing is written afterwards.
type Live struct {
	log      *slog.Logger
	saver    Saver
	now      func() time.Time
	debounce time.Duration
	tick     time.Duration

	mu      sync.Mutex
	session models.WorkoutSession
	dirty   bool
	closed  bool

	saveCh    chan struct{}
	cancel    context.CancelFunc
	group     *errgroup.Group
	closeOnce sync.Once
}

func startLive(s models.WorkoutSession, saver Saver, opts Options, now func() time.Time, log *slog.Logger) *Live {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	l := &Live{
		log:      log.With("session_id", s.ID, "user_id", s.UserID),
		saver:    saver,
		now:      now,
		debounce: opts.SaveDebounce,
		tick:     opts.DurationTick,
		session:  s,
		saveCh:   make(chan struct{}, 1),
		cancel:   cancel,
		group:    g,
	}
	g.Go(func() error { return l.saveLoop(gctx) })
	g.Go(func() error { return l.tickLoop(gctx) })
	return l
}

// Snapshot returns a copy of the current session.
func (l *Live) Snapshot() models.WorkoutSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session.Clone()
}

// ID returns the hosted session id.
func (l *Live) ID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session.ID
}

// Apply runs an action against the current session and executes its
// persist intent. Other intents are returned to the caller.
func (l *Live) Apply(fn func(models.WorkoutSession) (Transition, error)) (Transition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Transition{}, ErrClosed
	}
	tr, err := fn(l.session)
	if err != nil {
		return Transition{}, err
	}
	l.session = tr.Session
	if tr.Has(IntentPersist) {
		l.markDirtyLocked()
	}
	tr.Session = tr.Session.Clone()
	return tr, nil
}

func (l *Live) markDirty() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markDirtyLocked()
}

func (l *Live) markDirtyLocked() {
	l.dirty = true
	select {
	case l.saveCh <- struct{}{}:
	default:
	}
}

func (l *Live) saveLoop(ctx context.Context) error {
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.saveCh:
			// Each edit restarts the quiet period.
			fire = time.After(l.debounce)
		case <-fire:
			fire = nil
			l.flush(ctx)
		}
	}
}

func (l *Live) tickLoop(ctx context.Context) error {
	t := time.NewTicker(l.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l.mu.Lock()
			if !l.closed {
				tr := Tick(l.session, l.now())
				l.session = tr.Session
				if tr.Has(IntentPersist) {
					l.markDirtyLocked()
				}
			}
			l.mu.Unlock()
		}
	}
}

// flush writes the session if it changed since the last write.
func (l *Live) flush(ctx context.Context) {
	l.mu.Lock()
	if !l.dirty {
		l.mu.Unlock()
		return
	}
	snap := l.session.Clone()
	l.dirty = false
	l.mu.Unlock()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	if err := l.saver.SaveSession(saveCtx, snap); err != nil {
		l.log.Warn("debounced save failed", "error", err)
		l.mu.Lock()
		l.dirty = true
		l.mu.Unlock()
	}
}

// Close stops both tasks. With flush set, pending edits are written before
// Close returns; otherwise they are dropped. Close is idempotent.
func (l *Live) Close(flush bool) {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		l.cancel()
		_ = l.group.Wait()
		if flush {
			l.flush(context.Background())
		}
	})
}

// Detach closes the live session without writing and returns its final
// state. Used when the caller persists the session itself.
func (l *Live) Detach() models.WorkoutSession {
	l.Close(false)
	return l.Snapshot()
}
