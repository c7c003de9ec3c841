// Package storage keeps the task list as one JSON blob in a key-value store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"tally/internal/todo"
)

// TodosKey is the key the task list is stored under. Bump the version
// suffix if the blob layout changes incompatibly.
const TodosKey = "@todos_v1"

// ErrCorrupt is returned by Load when the stored blob cannot be parsed.
var ErrCorrupt = errors.New("stored task list is corrupt")

// Adapter serializes the task collection into a KV under a fixed key.
type Adapter struct {
	kv     KV
	key    string
	logger *log.Logger
}

func NewAdapter(kv KV, key string, logger *log.Logger) *Adapter {
	if key == "" {
		key = TodosKey
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Adapter{kv: kv, key: key, logger: logger}
}

func (a *Adapter) Key() string { return a.key }

// Load returns the stored collection. It always returns a non-nil slice;
// the error only says why the result is empty.
func (a *Adapter) Load(ctx context.Context) ([]todo.Task, error) {
	raw, found, err := a.kv.Get(ctx, a.key)
	if err != nil {
		a.logger.Error("loadTodos failed", "key", a.key, "err", err)
		return []todo.Task{}, fmt.Errorf("read %s: %w", a.key, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		a.logger.Debug("no stored tasks", "key", a.key)
		return []todo.Task{}, nil
	}
	var tasks []todo.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		a.logger.Error("loadTodos failed", "key", a.key, "err", err)
		return []todo.Task{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	return tasks, nil
}

// Save replaces the stored collection. Failures are logged here and also
// returned for callers that want them.
func (a *Adapter) Save(ctx context.Context, tasks []todo.Task) error {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		a.logger.Error("saveTodos failed", "key", a.key, "err", err)
		return err
	}
	if err := a.kv.Set(ctx, a.key, string(data)); err != nil {
		a.logger.Error("saveTodos failed", "key", a.key, "err", err)
		return fmt.Errorf("write %s: %w", a.key, err)
	}
	return nil
}
