package service

import (
	"sync"

	"github.com/drbrain/dashboard/internal/core/domain"
)

// ChromeStore is the layout state of one user's dashboard: title,
// breadcrumbs and whether the feedback modal is open.
type ChromeStore struct {
	mu     sync.RWMutex
	chrome domain.Chrome
}

// SetPage replaces the title and breadcrumbs; the modal flag is untouched.
func (s *ChromeStore) SetPage(title string, crumbs ...domain.Breadcrumb) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chrome.Title = title
	s.chrome.Breadcrumbs = append([]domain.Breadcrumb(nil), crumbs...)
}

func (s *ChromeStore) SetFeedbackModal(open bool) {
	s.mu.Lock()
	s.chrome.FeedbackModal = open
	s.mu.Unlock()
}

// Snapshot returns a copy safe to hand to a renderer.
func (s *ChromeStore) Snapshot() domain.Chrome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.chrome
	out.Breadcrumbs = append([]domain.Breadcrumb{}, s.chrome.Breadcrumbs...)
	return out
}

// ChromeRegistry hands out one ChromeStore per user.
type ChromeRegistry struct {
	mu     sync.Mutex
	stores map[string]*ChromeStore
}

func NewChromeRegistry() *ChromeRegistry {
	return &ChromeRegistry{stores: make(map[string]*ChromeStore)}
}

func (r *ChromeRegistry) For(userID string) *ChromeStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[userID]
	if !ok {
		s = &ChromeStore{}
		r.stores[userID] = s
	}
	return s
}

// Forget drops a user's store, typically on sign-out.
func (r *ChromeRegistry) Forget(userID string) {
	r.mu.Lock()
	delete(r.stores, userID)
	r.mu.Unlock()
}
