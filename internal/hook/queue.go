// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

package hook

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

const queueFileName = ".deferred-hooks.yaml"

// Queue is the persistent record of hooks a handler asked to have
// redelivered. The dispatcher re-runs queued hooks, oldest first, before
// the hook Juju actually delivered, and an entry survives a dispatch only
// if its handler defers it again. The queue lives in a single YAML file
// in the charm directory; writing it is a plain overwrite, so a re-run
// of the same dispatch converges to the same file.
type Queue struct {
	path  string
	hooks []Info
}

// NewQueue returns a Queue stored in the given charm directory.
func NewQueue(charmDir string) *Queue {
	return &Queue{path: filepath.Join(charmDir, queueFileName)}
}

// Load reads the queued hooks from disk. A missing file is an empty
// queue, not an error.
func (q *Queue) Load() error {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		q.hooks = nil
		return nil
	} else if err != nil {
		return errors.Annotate(err, "reading deferred hook queue")
	}
	var hooks []Info
	if err := yaml.Unmarshal(data, &hooks); err != nil {
		return errors.Annotatef(err, "parsing %s", queueFileName)
	}
	q.hooks = hooks
	return nil
}

// Pending returns the queued hooks in redelivery order.
func (q *Queue) Pending() []Info {
	pending := make([]Info, len(q.hooks))
	copy(pending, q.hooks)
	return pending
}

// Replace swaps the queue contents, dropping duplicate entries while
// preserving first-occurrence order. Deferring the same hook from both a
// redelivery and the live dispatch must not grow the queue.
func (q *Queue) Replace(hooks []Info) {
	seen := make(map[Info]bool, len(hooks))
	q.hooks = q.hooks[:0]
	for _, info := range hooks {
		if seen[info] {
			continue
		}
		seen[info] = true
		q.hooks = append(q.hooks, info)
	}
}

// Save writes the queue back to disk. An empty queue removes the file so
// a quiescent unit leaves nothing behind.
func (q *Queue) Save() error {
	if len(q.hooks) == 0 {
		if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
			return errors.Annotate(err, "removing deferred hook queue")
		}
		return nil
	}
	data, err := yaml.Marshal(q.hooks)
	if err != nil {
		return errors.Trace(err)
	}
	if err := os.WriteFile(q.path, data, 0644); err != nil {
		return errors.Annotate(err, "writing deferred hook queue")
	}
	return nil
}
