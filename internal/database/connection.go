package database

import (
	"context"
	"database/sql"
	"time"

	"adspace/internal/config"
	"adspace/internal/domain"
	"adspace/internal/metrics"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 10 * time.Minute
)

// Models lists every relational model, in migration order.
var Models = []any{
	&domain.User{},
	&domain.Inquiry{},
	&domain.Note{},
	&domain.Blog{},
	&domain.Job{},
	&domain.Reel{},
}

// Open connects to PostgreSQL or SQLite depending on the configured URL,
// configures the pool and runs migrations.
func Open(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if cfg.IsPostgres() {
		log.Info("connecting to PostgreSQL database")
		dialector = postgres.Open(cfg.GetPostgresDSN())
	} else {
		dbPath := cfg.GetSQLitePath()
		log.Info("connecting to SQLite database", zap.String("path", dbPath))
		sqlDB, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open SQLite database")
		}
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dbPath,
			Conn:       sqlDB,
		}
	}

	// SQL statements are never logged; they carry submitter data.
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	if cfg.IsPostgres() {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
		log.Info("connection pool configured",
			zap.Int("max_open", cfg.MaxOpenConns), zap.Int("max_idle", cfg.MaxIdleConns))
	} else {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "database connection test failed")
	}

	if err := RegisterMetrics(db); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database connected and migrated")
	return db, nil
}

// Migrate creates or updates the relational schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

const queryStartKey = "metrics:start"

// RegisterMetrics times every create, query, update and delete statement.
func RegisterMetrics(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			err := tx.Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = nil
			}
			metrics.RecordDBQuery(op, time.Since(v.(time.Time)), err)
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op     string
		before error
		after  error
	}{
		{"create", cb.Create().Before("gorm:create").Register("metrics:before_create", start),
			cb.Create().After("gorm:create").Register("metrics:after_create", finish("create"))},
		{"query", cb.Query().Before("gorm:query").Register("metrics:before_query", start),
			cb.Query().After("gorm:query").Register("metrics:after_query", finish("query"))},
		{"update", cb.Update().Before("gorm:update").Register("metrics:before_update", start),
			cb.Update().After("gorm:update").Register("metrics:after_update", finish("update"))},
		{"delete", cb.Delete().Before("gorm:delete").Register("metrics:before_delete", start),
			cb.Delete().After("gorm:delete").Register("metrics:after_delete", finish("delete"))},
	}
	for _, h := range hooks {
		if err := errors.CombineErrors(h.before, h.after); err != nil {
			return errors.Wrapf(err, "failed to register %s metrics callback", h.op)
		}
	}
	return nil
}

// ReportPoolStats publishes the connection pool gauges.
func ReportPoolStats(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	metrics.UpdateDBConnections(stats.InUse, stats.Idle)
}

// OpenMongo connects to MongoDB and returns the configured database handle.
func OpenMongo(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger) (*mongo.Database, error) {
	log.Info("connecting to MongoDB database", zap.String("database", cfg.MongoDBName))

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "MongoDB connection test failed")
	}

	log.Info("MongoDB connected")
	return client.Database(cfg.MongoDBName), nil
}
