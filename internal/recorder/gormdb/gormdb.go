// Package gormdb persists sessions to Postgres, falling back to a local
// SQLite database when the server is unreachable. Samples are buffered in
// queues and written in batches by a flush loop.
package gormdb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javaboyjunior/HDAugmentedReality/internal/queue"
	"github.com/javaboyjunior/HDAugmentedReality/pkg/core"
)

// DefaultFlushInterval is how often buffered samples are written out.
const DefaultFlushInterval = 5 * time.Second

// Backend stores session data through gorm.
type Backend struct {
	db    *gorm.DB
	sqlDB *sql.DB
	log   zerolog.Logger

	savingLocal   bool
	flushInterval time.Duration

	mu        sync.Mutex
	sessionID uint
	session   *SessionRecord

	fixes     *queue.Queue[LocationFixRecord]
	headings  *queue.Queue[HeadingSampleRecord]
	pitches   *queue.Queue[PitchSampleRecord]
	cycles    *queue.Queue[LayoutCycleRecord]
	snapshots *queue.Queue[AnnotationSnapshotRecord]

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates an unconnected backend. Init establishes the connection.
func New(log zerolog.Logger) *Backend {
	return &Backend{
		log:           log,
		flushInterval: DefaultFlushInterval,
		fixes:         queue.New[LocationFixRecord](),
		headings:      queue.New[HeadingSampleRecord](),
		pitches:       queue.New[PitchSampleRecord](),
		cycles:        queue.New[LayoutCycleRecord](),
		snapshots:     queue.New[AnnotationSnapshotRecord](),
	}
}

// NewWithDB wraps an existing gorm connection. Used by tests and by hosts
// that manage their own database handle.
func NewWithDB(db *gorm.DB, log zerolog.Logger) *Backend {
	b := New(log)
	b.db = db
	return b
}

// SetFlushInterval overrides the batch flush period. Must be called
// before Init.
func (b *Backend) SetFlushInterval(d time.Duration) {
	if d > 0 {
		b.flushInterval = d
	}
}

// Init connects, migrates the schema and starts the flush loop.
func (b *Backend) Init() error {
	if b.db == nil {
		if err := b.connect(); err != nil {
			return err
		}
	}

	if err := b.db.AutoMigrate(DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.stop = make(chan struct{})
	b.wg.Add(1)
	go b.flushLoop()

	b.log.Info().Bool("local", b.savingLocal).Msg("recorder database ready")
	return nil
}

// connect tries Postgres first and degrades to local SQLite.
func (b *Backend) connect() error {
	db, err := b.openPostgres()
	if err == nil {
		if sqlDB, pingErr := db.DB(); pingErr == nil && sqlDB.Ping() == nil {
			sqlDB.SetMaxOpenConns(10)
			b.db = db
			b.sqlDB = sqlDB
			return nil
		}
	}
	b.log.Error().Err(err).Msg("postgres unavailable, falling back to sqlite")

	b.savingLocal = true
	b.db, err = b.openSqlite(b.sqlitePath())
	if err != nil {
		return fmt.Errorf("failed to open local sqlite db: %w", err)
	}
	b.sqlDB, err = b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return nil
}

func (b *Backend) openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	b.log.Debug().Str("host", viper.GetString("db.host")).Msg("connecting to postgres")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

func (b *Backend) openSqlite(path string) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = path
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting pragma: %w", err)
		}
	}
	return db, nil
}

func (b *Backend) sqlitePath() string {
	dir := viper.GetString("recorder.outputDir")
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "hdar_sessions.db")
}

// Close drains the queues and shuts the connection down.
func (b *Backend) Close() error {
	if b.stop != nil {
		close(b.stop)
		b.wg.Wait()
		b.stop = nil
	}
	b.flush()
	if b.sqlDB != nil {
		return b.sqlDB.Close()
	}
	return nil
}

// StartSession inserts the session row and assigns its ID.
func (b *Backend) StartSession(s *core.Session) error {
	if s.StartTime.IsZero() {
		s.StartTime = time.Now()
	}
	rec := SessionRecord{
		Name:        s.Name,
		DeviceModel: s.DeviceModel,
		StartTime:   s.StartTime,
	}
	if err := b.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.ID = rec.ID

	b.mu.Lock()
	b.session = &rec
	b.sessionID = rec.ID
	b.mu.Unlock()

	b.log.Info().Uint("session", rec.ID).Str("name", rec.Name).Msg("session started")
	return nil
}

// EndSession flushes pending samples and stamps the end time.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	rec := b.session
	b.session = nil
	b.mu.Unlock()

	if rec == nil {
		return fmt.Errorf("no session in progress")
	}

	b.flush()

	rec.EndTime = time.Now()
	if err := b.db.Model(rec).Update("end_time", rec.EndTime).Error; err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	b.log.Info().Uint("session", rec.ID).Msg("session ended")
	return nil
}

func (b *Backend) currentSessionID() (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return 0, fmt.Errorf("no session in progress")
	}
	return b.sessionID, nil
}

// RecordLocationFix buffers one accepted fix.
func (b *Backend) RecordLocationFix(f core.LocationFix) error {
	id, err := b.currentSessionID()
	if err != nil {
		return err
	}
	b.fixes.Push(NewLocationFixRecord(id, f))
	return nil
}

// RecordHeadingSample buffers one compass reading.
func (b *Backend) RecordHeadingSample(h core.HeadingSample) error {
	id, err := b.currentSessionID()
	if err != nil {
		return err
	}
	b.headings.Push(NewHeadingSampleRecord(id, h))
	return nil
}

// RecordPitchSample buffers one pitch reading.
func (b *Backend) RecordPitchSample(p core.PitchSample) error {
	id, err := b.currentSessionID()
	if err != nil {
		return err
	}
	b.pitches.Push(NewPitchSampleRecord(id, p))
	return nil
}

// RecordLayoutCycle buffers one layout pass.
func (b *Backend) RecordLayoutCycle(c core.LayoutCycle) error {
	id, err := b.currentSessionID()
	if err != nil {
		return err
	}
	b.cycles.Push(NewLayoutCycleRecord(id, c))
	return nil
}

// RecordAnnotationSnapshot buffers one annotation state snapshot.
func (b *Backend) RecordAnnotationSnapshot(a core.Annotation) error {
	id, err := b.currentSessionID()
	if err != nil {
		return err
	}
	b.snapshots.Push(NewAnnotationSnapshotRecord(id, a, time.Now()))
	return nil
}

// PendingCount reports how many samples are waiting for the next flush.
func (b *Backend) PendingCount() int {
	return b.fixes.Len() + b.headings.Len() + b.pitches.Len() +
		b.cycles.Len() + b.snapshots.Len()
}

func (b *Backend) flushLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.flush()
		case <-b.stop:
			return
		}
	}
}

// flush drains every queue and writes each batch in one insert.
func (b *Backend) flush() {
	start := time.Now()
	written := 0
	written += flushBatch(b, b.fixes)
	written += flushBatch(b, b.headings)
	written += flushBatch(b, b.pitches)
	written += flushBatch(b, b.cycles)
	written += flushBatch(b, b.snapshots)

	if written > 0 {
		b.log.Debug().Int("records", written).
			Dur("duration", time.Since(start)).Msg("flushed sample batch")
	}
}

func flushBatch[T any](b *Backend, q *queue.Queue[T]) int {
	batch := q.Drain()
	if len(batch) == 0 {
		return 0
	}
	if err := b.db.Create(&batch).Error; err != nil {
		b.log.Error().Err(err).Int("records", len(batch)).Msg("batch insert failed")
		return 0
	}
	return len(batch)
}
