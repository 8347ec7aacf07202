package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/drbrain/dashboard/internal/api/metrics"
	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const subscriberBuffer = 32

// RealtimeTables are the tables whose inserts reach the dashboard.
var RealtimeTables = []string{"messages", "conversations"}

// Enqueuer accepts notifications for ordered asynchronous delivery.
type Enqueuer interface {
	Enqueue(n domain.Notification)
}

type userFeed struct {
	subscribers map[int]chan domain.Notification
	cancel      context.CancelFunc
}

// NotificationService keeps one realtime subscription per user with at least
// one open stream and fans each notification out to that user's streams.
type NotificationService struct {
	source   ports.RealtimeSource
	sessions ports.SessionSource
	log      zerolog.Logger
	queue    Enqueuer

	root   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	nextID int
	feeds  map[string]*userFeed
}

func NewNotificationService(source ports.RealtimeSource, sessions ports.SessionSource, log zerolog.Logger) *NotificationService {
	root, cancel := context.WithCancel(context.Background())
	return &NotificationService{
		source:   source,
		sessions: sessions,
		log:      log,
		root:     root,
		cancel:   cancel,
		feeds:    make(map[string]*userFeed),
	}
}

// RouteThrough makes incoming notifications go through q before Publish.
// Without a queue they are published inline.
func (s *NotificationService) RouteThrough(q Enqueuer) {
	s.mu.Lock()
	s.queue = q
	s.mu.Unlock()
}

// Subscribe opens a stream for the session's user. The returned function
// closes it; the realtime subscription ends with the user's last stream.
func (s *NotificationService) Subscribe(_ context.Context, sess *domain.Session) (<-chan domain.Notification, func(), error) {
	if sess == nil || sess.User.ID == "" {
		return nil, nil, domain.ErrUnauthenticated
	}
	userID := sess.User.ID
	ch := make(chan domain.Notification, subscriberBuffer)

	s.mu.Lock()
	feed, ok := s.feeds[userID]
	if !ok {
		feed = &userFeed{subscribers: make(map[int]chan domain.Notification)}
		s.feeds[userID] = feed
		feed.cancel = s.listen(sess)
	}
	id := s.nextID
	s.nextID++
	feed.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { s.unsubscribe(userID, id) })
	}
	return ch, unsubscribe, nil
}

func (s *NotificationService) unsubscribe(userID string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[userID]
	if !ok {
		return
	}
	if ch, ok := feed.subscribers[id]; ok {
		delete(feed.subscribers, id)
		close(ch)
	}
	if len(feed.subscribers) == 0 {
		feed.cancel()
		delete(s.feeds, userID)
	}
}

// Publish delivers n to every open stream of its user. Slow streams drop
// the notification rather than block the others.
func (s *NotificationService) Publish(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[n.UserID]
	if !ok {
		return nil
	}
	for _, ch := range feed.subscribers {
		select {
		case ch <- n:
		default:
			metrics.NotificationsDroppedTotal.Inc()
		}
	}
	return nil
}

// Close ends every realtime subscription and closes all streams.
func (s *NotificationService) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, feed := range s.feeds {
		for id, ch := range feed.subscribers {
			delete(feed.subscribers, id)
			close(ch)
		}
		feed.cancel()
		delete(s.feeds, userID)
	}
}

// listen starts the user's realtime subscription; must be called with s.mu held.
func (s *NotificationService) listen(sess *domain.Session) context.CancelFunc {
	ctx, cancel := context.WithCancel(s.root)
	userID, sessionID, token := sess.User.ID, sess.ID, sess.AccessToken

	sub := ports.RealtimeSubscription{
		UserID: userID,
		Tables: RealtimeTables,
		Token: func(ctx context.Context) (string, error) {
			if sessionID == "" {
				return token, nil
			}
			cur, err := s.sessions.Current(ctx, sessionID)
			if err != nil {
				return "", err
			}
			return cur.AccessToken, nil
		},
	}
	q := s.queue

	go func() {
		err := s.source.Subscribe(ctx, sub, func(n domain.Notification) {
			if n.UserID == "" {
				n.UserID = userID
			}
			if n.ReceivedAt.IsZero() {
				n.ReceivedAt = time.Now().UTC()
			}
			metrics.RealtimeNotificationsTotal.WithLabelValues(n.Table).Inc()
			if q != nil {
				q.Enqueue(n)
				return
			}
			_ = s.Publish(ctx, n)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("realtime subscription ended")
		}
	}()
	return cancel
}
