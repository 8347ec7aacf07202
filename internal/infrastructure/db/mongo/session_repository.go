package mongo

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/blake2b"

	"github.com/drbrain/dashboard/internal/core/domain"
	"github.com/drbrain/dashboard/internal/core/ports"
)

const sessionCollection = "sessions"

// SessionRepository stores sessions keyed by the blake2b digest of the
// session id, so a database dump cannot be replayed as cookies.
type SessionRepository struct {
	coll *mongo.Collection
	ttl  time.Duration
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository returns a repository whose documents expire ttl after
// their last save.
func NewSessionRepository(db *mongo.Database, ttl time.Duration) *SessionRepository {
	return &SessionRepository{coll: db.Collection(sessionCollection), ttl: ttl}
}

type mongoSession struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Email        string    `bson:"email"`
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token"`
	ExpiresAt    int64     `bson:"expires_at"`
	CreatedAt    int64     `bson:"created_at"`
	UpdatedAt    int64     `bson:"updated_at"`
	ExpireAfter  time.Time `bson:"expire_after"`
}

func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoSession{
		ID:           digest(s.ID),
		UserID:       s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt.Unix(),
		CreatedAt:    s.CreatedAt.Unix(),
		UpdatedAt:    s.UpdatedAt.Unix(),
		ExpireAfter:  s.UpdatedAt.Add(r.ttl).UTC(),
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Find(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSession
	if err := r.coll.FindOne(ctx, bson.M{"_id": digest(id)}).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	return &domain.Session{
		ID:           id,
		AccessToken:  ms.AccessToken,
		RefreshToken: ms.RefreshToken,
		ExpiresAt:    unixToTime(ms.ExpiresAt),
		User:         domain.User{ID: ms.UserID, Email: ms.Email},
		CreatedAt:    unixToTime(ms.CreatedAt),
		UpdatedAt:    unixToTime(ms.UpdatedAt),
	}, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": digest(id)}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// EnsureIndexes creates the TTL index that purges abandoned sessions and the
// user index used for per-user cleanup.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "expire_after", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func digest(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
