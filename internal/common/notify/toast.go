package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/passengerflow-console/internal/common/logger"
)

const DefaultDuration = 5 * time.Second

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// DefaultTitle is used when a toast is shown without a title
func (k Kind) DefaultTitle() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindError:
		return "Error"
	case KindWarning:
		return "Warning"
	default:
		return "Info"
	}
}

// Toast is a transient operator notification
type Toast struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Created   time.Time `json:"created"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sink receives a copy of forwarded toasts
type Sink interface {
	Forward(ctx context.Context, t Toast) error
}

type entry struct {
	toast Toast
	timer *time.Timer
}

// Center keeps the active toasts and expires them on a timer
type Center struct {
	mu       sync.Mutex
	toasts   map[string]*entry
	duration time.Duration
	sinks    []Sink
	forward  map[Kind]bool
	logger   logger.Logger
	wg       sync.WaitGroup
}

// NewCenter creates a toast center. Error toasts are forwarded to every sink.
func NewCenter(duration time.Duration, logger logger.Logger, sinks ...Sink) *Center {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Center{
		toasts:   make(map[string]*entry),
		duration: duration,
		sinks:    sinks,
		forward:  map[Kind]bool{KindError: true},
		logger:   logger.With("component", "toasts"),
	}
}

// Show adds a toast that disappears after duration (the center default when <= 0)
func (c *Center) Show(kind Kind, title, message string, duration time.Duration) Toast {
	if title == "" {
		title = kind.DefaultTitle()
	}
	if duration <= 0 {
		duration = c.duration
	}

	now := time.Now()
	t := Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		Created:   now,
		ExpiresAt: now.Add(duration),
	}

	c.mu.Lock()
	e := &entry{toast: t}
	e.timer = time.AfterFunc(duration, func() { c.expire(t.ID) })
	c.toasts[t.ID] = e
	c.mu.Unlock()

	if c.forward[kind] {
		c.forwardToSinks(t)
	}

	return t
}

func (c *Center) Success(message string) Toast {
	return c.Show(KindSuccess, "", message, 0)
}

func (c *Center) Error(message string) Toast {
	return c.Show(KindError, "", message, 0)
}

func (c *Center) Warning(message string) Toast {
	return c.Show(KindWarning, "", message, 0)
}

func (c *Center) Info(message string) Toast {
	return c.Show(KindInfo, "", message, 0)
}

// Dismiss removes a toast before it expires and stops its timer.
// It reports whether the toast was still active.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.toasts[id]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(c.toasts, id)
	return true
}

func (c *Center) expire(id string) {
	c.mu.Lock()
	delete(c.toasts, id)
	c.mu.Unlock()
}

// Active returns the visible toasts, oldest first
func (c *Center) Active() []Toast {
	c.mu.Lock()
	out := make([]Toast, 0, len(c.toasts))
	for _, e := range c.toasts {
		out = append(out, e.toast)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

func (c *Center) forwardToSinks(t Toast) {
	for _, sink := range c.sinks {
		c.wg.Add(1)
		go func(s Sink) {
			defer c.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Forward(ctx, t); err != nil {
				c.logger.Warn("Failed to forward toast", "toast_id", t.ID, "error", err)
			}
		}(sink)
	}
}

// Close stops all timers and waits for in-flight forwards
func (c *Center) Close() {
	c.mu.Lock()
	for id, e := range c.toasts {
		e.timer.Stop()
		delete(c.toasts, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
}
