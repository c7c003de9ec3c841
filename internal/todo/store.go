// Package todo owns the task collection: mutations, derived views and the
// hand-off of every change to a Persister.
package todo

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Persister stores the whole collection as one unit.
//
// Load must return a usable collection even when it also returns an error;
// the error is diagnostic only and the Store treats it as "no prior data".
type Persister interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, tasks []Task) error
}

type EventKind int

const (
	EventLoaded EventKind = iota
	EventAdded
	EventToggled
	EventDeleted
	EventPriorityChanged
	EventCleared
	EventFilterChanged
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventAdded:
		return "added"
	case EventToggled:
		return "toggled"
	case EventDeleted:
		return "deleted"
	case EventPriorityChanged:
		return "priority"
	case EventCleared:
		return "cleared"
	case EventFilterChanged:
		return "filter"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to subscribers after a state change. TaskID is empty
// for changes that are not about a single task.
type Event struct {
	Kind   EventKind
	TaskID string
}

type subscriber struct {
	id int
	fn func(Event)
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDFunc replaces the id generator. Ids that collide with an existing
// task are regenerated.
func WithIDFunc(fn func(time.Time) string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func WithFilter(f Filter) Option {
	return func(s *Store) {
		if f.Valid() {
			s.filter = f
		}
	}
}

// Store is the single owner of the task collection. It starts in the
// loading state; call Load once to populate it from the Persister.
//
// Slices held in tasks are never modified in place, so a snapshot handed
// to the writer stays valid after later mutations.
type Store struct {
	mu      sync.Mutex
	tasks   []Task
	filter  Filter
	loading bool

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	logger *log.Logger
	now    func() time.Time
	newID  func(time.Time) string
	w      *writer
}

func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		filter:  FilterAll,
		loading: true,
		logger:  log.New(io.Discard),
		now:     time.Now,
		newID:   newTaskID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.w = startWriter(p, s.logger)
	return s
}

func newTaskID(now time.Time) string {
	return fmt.Sprintf("todo_%d_%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Load populates the collection from the Persister and marks the store
// ready. Only the first call has an effect. A failed load leaves the
// collection empty.
func (s *Store) Load(ctx context.Context) {
	loaded, err := s.w.p.Load(ctx)
	if err != nil {
		s.logger.Warn("load failed, starting with an empty list", "err", err)
		loaded = nil
	}
	loaded = Normalize(loaded)

	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return
	}
	s.tasks = loaded
	s.loading = false
	n := len(loaded)
	s.mu.Unlock()

	s.logger.Debug("tasks loaded", "count", n)
	s.notify(Event{Kind: EventLoaded})
}

// Normalize drops records without an id or with a duplicate id (the first
// wins) and resets unknown priorities to medium.
func Normalize(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		if !t.Priority.Valid() {
			t.Priority = PriorityMedium
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Add prepends a new task. Blank titles are ignored and reported as false.
func (s *Store) Add(title string, priority Priority, category string) (Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, false
	}
	if !priority.Valid() {
		priority = PriorityMedium
	}
	var added Task
	s.mutate(EventAdded, "", func(cur []Task) ([]Task, bool) {
		now := s.now()
		added = Task{
			ID:        s.uniqueID(cur, now),
			Title:     title,
			Priority:  priority,
			CreatedAt: now.UnixMilli(),
			Category:  strings.TrimSpace(category),
		}
		next := make([]Task, 0, len(cur)+1)
		next = append(next, added)
		return append(next, cur...), true
	})
	return added, true
}

const maxIDAttempts = 16

// uniqueID asks the configured generator for an unused id and falls back
// to the default generator once it has failed maxIDAttempts times.
func (s *Store) uniqueID(cur []Task, now time.Time) string {
	gen := s.newID
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			s.logger.Warn("id generator keeps colliding, using default", "attempts", attempt)
			gen = newTaskID
		}
		id := gen(now)
		if id != "" && indexOf(cur, id) < 0 {
			return id
		}
	}
}

func (s *Store) Toggle(id string) bool {
	return s.mutateTask(EventToggled, id, func(t *Task) { t.Completed = !t.Completed })
}

func (s *Store) UpdatePriority(id string, p Priority) bool {
	if !p.Valid() {
		return false
	}
	return s.mutateTask(EventPriorityChanged, id, func(t *Task) { t.Priority = p })
}

func (s *Store) Delete(id string) bool {
	return s.mutate(EventDeleted, id, func(cur []Task) ([]Task, bool) {
		i := indexOf(cur, id)
		if i < 0 {
			return cur, false
		}
		next := make([]Task, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		return append(next, cur[i+1:]...), true
	})
}

// ClearCompleted removes every completed task and returns how many went.
func (s *Store) ClearCompleted() int {
	removed := 0
	s.mutate(EventCleared, "", func(cur []Task) ([]Task, bool) {
		next := FilterTasks(cur, FilterPending)
		removed = len(cur) - len(next)
		return next, removed > 0
	})
	return removed
}

func (s *Store) SetFilter(f Filter) bool {
	if !f.Valid() {
		return false
	}
	s.mu.Lock()
	changed := s.filter != f
	s.filter = f
	s.mu.Unlock()
	if changed {
		s.notify(Event{Kind: EventFilterChanged})
	}
	return true
}

func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Visible returns the tasks selected by the active filter.
func (s *Store) Visible() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilterTasks(s.tasks, s.filter)
}

func (s *Store) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Stats are computed from the whole collection regardless of the filter.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeStats(s.tasks)
}

func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i], true
}

// Resolve finds a task by exact id or by a unique id prefix.
func (s *Store) Resolve(ref string) (Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Task{}, fmt.Errorf("empty task id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.tasks, ref); i >= 0 {
		return s.tasks[i], nil
	}
	var match []Task
	for _, t := range s.tasks {
		if strings.HasPrefix(t.ID, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 0:
		return Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return match[0], nil
	default:
		return Task{}, fmt.Errorf("%q matches %d tasks", ref, len(match))
	}
}

// Subscribe registers fn for change notifications. fn runs on the
// goroutine that made the change, after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
		s.subMu.Unlock()
	}
}

// Flush blocks until every write scheduled so far has been attempted.
func (s *Store) Flush(ctx context.Context) error {
	return s.w.flush(ctx)
}

// Close flushes pending writes and stops the background writer. Later
// mutations still apply in memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	err := s.w.flush(ctx)
	if stopErr := s.w.stop(ctx); err == nil {
		err = stopErr
	}
	return err
}

func (s *Store) mutateTask(kind EventKind, id string, fn func(*Task)) bool {
	return s.mutate(kind, id, func(cur []Task) ([]Task, bool) {
		i := indexOf(cur, id)
		if i < 0 {
			return cur, false
		}
		next := slices.Clone(cur)
		fn(&next[i])
		return next, true
	})
}

// mutate applies fn under the lock. The snapshot is scheduled while the
// lock is still held so writes are queued in mutation order.
func (s *Store) mutate(kind EventKind, id string, fn func([]Task) ([]Task, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.tasks)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.tasks = next
	if !s.loading {
		s.w.schedule(next)
	}
	s.mu.Unlock()

	ev := Event{Kind: kind, TaskID: id}
	if kind == EventAdded {
		ev.TaskID = next[0].ID
	}
	s.logger.Debug("tasks changed", "event", kind, "task", ev.TaskID, "count", len(next))
	s.notify(ev)
	return true
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

func indexOf(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}
