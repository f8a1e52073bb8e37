package store

import (
	"context"

	"adspace/internal/config"
	"adspace/internal/database"
	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate record")

// InquiryStore persists contact inquiries. Every mutation targets exactly one
// inquiry by id and returns the stored record after the change.
type InquiryStore interface {
	Create(ctx context.Context, inq *domain.Inquiry) error
	List(ctx context.Context) ([]domain.Inquiry, error)
	Get(ctx context.Context, id string) (*domain.Inquiry, error)
	SetStatus(ctx context.Context, id string, status domain.InquiryStatus) (*domain.Inquiry, error)
	// MarkViewed moves an unread inquiry to read and reports whether it did.
	MarkViewed(ctx context.Context, id string) (*domain.Inquiry, bool, error)
	AppendNote(ctx context.Context, id, content string) (*domain.Inquiry, error)
	MarkForwarded(ctx context.Context, id string) (*domain.Inquiry, error)
}

// UserStore persists admin accounts.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// Repository persists one kind of site content.
type Repository[T any, PT domain.Entity[T]] interface {
	Create(ctx context.Context, item PT) error
	Get(ctx context.Context, id string) (PT, error)
	List(ctx context.Context) ([]T, error)
	Replace(ctx context.Context, item PT) error
	Delete(ctx context.Context, id string) error
	// ExistsBy reports whether another record than excludeID has field == value.
	ExistsBy(ctx context.Context, field, value, excludeID string) (bool, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Backend   string
	Inquiries InquiryStore
	Users     UserStore
	Blogs     Repository[domain.Blog, *domain.Blog]
	Jobs      Repository[domain.Job, *domain.Job]
	Reels     Repository[domain.Reel, *domain.Reel]

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
	stats func()
}

// Open connects to the configured database. mongodb:// URLs select the
// document backend, everything else goes through GORM.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	if cfg.IsMongo() {
		db, err := database.OpenMongo(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s := NewMongo(db)
		if err := s.ensureMongoIndexes(ctx, db); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewGorm(db), nil
}

// NewGorm builds a store over an already migrated GORM handle.
func NewGorm(db *gorm.DB) *Store {
	return &Store{
		Backend:   "sql",
		Inquiries: &gormInquiries{db: db},
		Users:     &gormUsers{db: db},
		Blogs:     &gormRepository[domain.Blog, *domain.Blog]{db: db},
		Jobs:      &gormRepository[domain.Job, *domain.Job]{db: db},
		Reels:     &gormRepository[domain.Reel, *domain.Reel]{db: db},
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
		stats: func() { database.ReportPoolStats(db) },
	}
}

// NewMongo builds a store over a MongoDB database.
func NewMongo(db *mongo.Database) *Store {
	return &Store{
		Backend:   "mongo",
		Inquiries: newMongoInquiries(db),
		Users:     newMongoUsers(db),
		Blogs:     newMongoRepository[domain.Blog](db, "blogs"),
		Jobs:      newMongoRepository[domain.Job](db, "jobs"),
		Reels:     newMongoRepository[domain.Reel](db, "reels"),
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}
}

// Ping checks the backend connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// ReportStats publishes connection pool metrics where the backend has them.
func (s *Store) ReportStats() {
	if s.stats != nil {
		s.stats()
	}
}
