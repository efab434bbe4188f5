package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry keeps one controller per session id. Sessions share nothing.
type Registry struct {
	newController func() *Controller
	now           func() time.Time
	onEvict       func(*Controller)

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(newController func() *Controller) *Registry {
	return &Registry{
		newController: newController,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// OnEvict registers fn to run for every session Sweep removes.
func (r *Registry) OnEvict(fn func(*Controller)) {
	r.mu.Lock()
	r.onEvict = fn
	r.mu.Unlock()
}

func (r *Registry) Create() (string, *Controller) {
	id := uuid.NewString()
	c := r.newController()

	r.mu.Lock()
	r.sessions[id] = &session{controller: c, lastSeen: r.now()}
	r.mu.Unlock()

	return id, c
}

func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.controller, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than maxIdle that are not running an
// action. It returns how many were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	cutoff := r.now().Add(-maxIdle)
	var evicted []*Controller
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && !s.controller.Busy() {
			delete(r.sessions, id)
			evicted = append(evicted, s.controller)
		}
	}
	onEvict := r.onEvict
	r.mu.Unlock()

	if onEvict != nil {
		for _, c := range evicted {
			onEvict(c)
		}
	}
	return len(evicted)
}
