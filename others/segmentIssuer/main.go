// Command segmentIssuer issues EUUIs whose first quarter is a sequence number reserved in
// segments from MySQL (the Leaf segment scheme) and whose other three quarters are random.
// Ordering by the first quarter therefore follows allocation order across all instances
// sharing the leaf_alloc table.
//
// Expected schema:
//
//	CREATE TABLE leaf_alloc (
//	    biz_tag VARCHAR(128) PRIMARY KEY,
//	    max_id  BIGINT NOT NULL,
//	    step    INT    NOT NULL
//	);
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"lukechampine.com/uint128"

	"github.com/Lzww0608/geuui"
	"github.com/Lzww0608/geuui/internal/config"
	"github.com/Lzww0608/geuui/internal/log"
)

// prefetchRatio is the share of a segment left when the next one is fetched in the background.
const prefetchRatio = 0.2

// Segment represents a range of sequence numbers usable by this issuer.
// Base: Start of the range (exclusive).
// Max: End of the range (inclusive).
type Segment struct {
	Base   int64
	Max    int64
	Step   int
	Cursor int64 // current position, accessed atomically
}

// NewSegment creates a new segment starting after base and ending at max.
func NewSegment(base, max int64, step int) *Segment {
	return &Segment{
		Base:   base,
		Max:    max,
		Step:   step,
		Cursor: base,
	}
}

// Remaining returns how many sequence numbers are left in the segment.
func (s *Segment) Remaining() int64 {
	return s.Max - atomic.LoadInt64(&s.Cursor)
}

// segmentFetcher reserves the next segment for a business tag.
type segmentFetcher interface {
	FetchNextSegment(ctx context.Context, bizTag string) (*Segment, error)
}

// DoubleBuffer serves sequence numbers from the current segment while the next one is
// prefetched in the background.
type DoubleBuffer struct {
	bizTag string

	current *Segment
	next    *Segment

	nextReady bool
	isLoading int32 // atomic flag for an ongoing prefetch
	mu        sync.Mutex

	fetcher segmentFetcher
	logger  zerolog.Logger
}

// NewDoubleBuffer constructs a double buffer for bizTag.
func NewDoubleBuffer(bizTag string, fetcher segmentFetcher, logger zerolog.Logger) *DoubleBuffer {
	return &DoubleBuffer{
		bizTag:  bizTag,
		fetcher: fetcher,
		logger:  logger.With().Str(log.FieldBizTag, bizTag).Logger(),
	}
}

// Init loads the first segment.
func (db *DoubleBuffer) Init(ctx context.Context) error {
	seg, err := db.fetcher.FetchNextSegment(ctx, db.bizTag)
	if err != nil {
		return err
	}
	db.mu.Lock()
	db.current = seg
	db.mu.Unlock()
	return nil
}

// NextSeq returns the next sequence number, switching to or fetching a new segment when
// the current one is exhausted.
func (db *DoubleBuffer) NextSeq(ctx context.Context) (int64, error) {
	db.mu.Lock()
	cur := db.current
	db.mu.Unlock()
	if cur == nil {
		return 0, errors.New("segment not initialized")
	}

	// Fast path
	if seq := atomic.AddInt64(&cur.Cursor, 1); seq <= cur.Max {
		db.checkAndLoadNext(cur)
		return seq, nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	// Another goroutine may have switched segments while we waited
	if seq := atomic.AddInt64(&db.current.Cursor, 1); seq <= db.current.Max {
		return seq, nil
	}

	if db.nextReady && db.next != nil && db.next.Max > db.current.Max {
		db.current = db.next
		db.next = nil
		db.nextReady = false
		db.logger.Debug().Int64("max", db.current.Max).Msg("switched to prefetched segment")
		return atomic.AddInt64(&db.current.Cursor, 1), nil
	}

	// Neither buffer is ready, fetch synchronously
	seg, err := db.fetcher.FetchNextSegment(ctx, db.bizTag)
	if err != nil {
		return 0, err
	}
	db.logger.Warn().Int64("max", seg.Max).Msg("segment fetched synchronously")
	db.current = seg
	db.next = nil
	db.nextReady = false
	return atomic.AddInt64(&db.current.Cursor, 1), nil
}

// checkAndLoadNext prefetches the next segment once cur runs low.
// Only one prefetch runs at a time.
func (db *DoubleBuffer) checkAndLoadNext(cur *Segment) {
	db.mu.Lock()
	ready := db.nextReady
	db.mu.Unlock()
	if ready || atomic.LoadInt32(&db.isLoading) == 1 {
		return
	}

	threshold := int64(float64(cur.Step) * prefetchRatio)
	if cur.Remaining() > threshold {
		return
	}

	if atomic.CompareAndSwapInt32(&db.isLoading, 0, 1) {
		go func() {
			defer atomic.StoreInt32(&db.isLoading, 0)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			seg, err := db.fetcher.FetchNextSegment(ctx, db.bizTag)
			if err != nil {
				db.logger.Error().Err(err).Msg("segment prefetch failed")
				return
			}

			db.storeNext(seg)
		}()
	}
}

// storeNext keeps seg as the next segment unless a newer one was already made current,
// as happens when a synchronous fetch overtakes the prefetch.
func (db *DoubleBuffer) storeNext(seg *Segment) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.current != nil && seg.Max <= db.current.Max {
		db.logger.Debug().Int64("max", seg.Max).Int64("current_max", db.current.Max).Msg("dropped stale prefetched segment")
		return
	}
	db.next = seg
	db.nextReady = true
	db.logger.Debug().Int64("max", seg.Max).Msg("segment prefetched")
}

// LeafDAO reserves segments in the leaf_alloc table.
type LeafDAO struct {
	db *sql.DB
}

// NewLeafDAO opens a MySQL connection pool for dsn.
func NewLeafDAO(dsn string) (*LeafDAO, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &LeafDAO{db: db}, nil
}

// FetchNextSegment atomically advances max_id by step and returns the reserved range.
func (dao *LeafDAO) FetchNextSegment(ctx context.Context, bizTag string) (*Segment, error) {
	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		"UPDATE leaf_alloc SET max_id = max_id + step WHERE biz_tag = ?", bizTag); err != nil {
		return nil, err
	}

	var maxID int64
	var step int
	if err = tx.QueryRowContext(ctx,
		"SELECT max_id, step FROM leaf_alloc WHERE biz_tag = ?", bizTag).Scan(&maxID, &step); err != nil {
		return nil, fmt.Errorf("read segment for %q: %w", bizTag, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return NewSegment(maxID-int64(step), maxID, step), nil
}

// Close releases the connection pool.
func (dao *LeafDAO) Close() error {
	return dao.db.Close()
}

// Issuer hands out EUUIs per business tag. The first quarter of every EUUI is the next
// sequence number of its tag.
type Issuer struct {
	fetcher segmentFetcher
	gen     *geuui.Generator
	logger  zerolog.Logger

	buffers map[string]*DoubleBuffer
	mu      sync.RWMutex
}

// NewIssuer creates an issuer that reserves segments through fetcher.
func NewIssuer(fetcher segmentFetcher, gen *geuui.Generator, logger zerolog.Logger) *Issuer {
	return &Issuer{
		fetcher: fetcher,
		gen:     gen,
		logger:  logger,
		buffers: make(map[string]*DoubleBuffer),
	}
}

// Issue returns a new EUUI for bizTag.
func (s *Issuer) Issue(ctx context.Context, bizTag string) (geuui.EUUI, error) {
	buf, err := s.buffer(ctx, bizTag)
	if err != nil {
		return geuui.Nil, err
	}
	seq, err := buf.NextSeq(ctx)
	if err != nil {
		return geuui.Nil, err
	}
	return s.gen.NewWithQuarter(geuui.First, uint128.From64(uint64(seq)))
}

// buffer returns the double buffer of bizTag, creating it on first use.
func (s *Issuer) buffer(ctx context.Context, bizTag string) (*DoubleBuffer, error) {
	s.mu.RLock()
	buf, ok := s.buffers[bizTag]
	s.mu.RUnlock()
	if ok {
		return buf, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok = s.buffers[bizTag]; ok {
		return buf, nil
	}

	buf = NewDoubleBuffer(bizTag, s.fetcher, s.logger)
	if err := buf.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize double buffer: %w", err)
	}
	s.buffers[bizTag] = buf
	return buf, nil
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Log.ServiceName = "segment-issuer"
	log.Init(cfg.Log)
	logger := log.L()

	dao, err := NewLeafDAO(cfg.Segment.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	defer dao.Close()

	issuer := NewIssuer(dao, geuui.NewGenerator(), logger)
	logger.Info().Str(log.FieldBizTag, cfg.Segment.BizTag).Msg("segment issuer started")

	ctx := context.Background()
	start := time.Now()

	// 10 concurrent workers, 500 EUUIs each
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				id, err := issuer.Issue(ctx, cfg.Segment.BizTag)
				if err != nil {
					logger.Error().Err(err).Int("worker", worker).Msg("issue failed")
					continue
				}
				if j%100 == 0 {
					logger.Debug().Int("worker", worker).Str(log.FieldEUUI, id.String()).Msg("issued")
				}
			}
		}(i)
	}
	wg.Wait()

	logger.Info().Dur("elapsed", time.Since(start)).Int("count", 5000).Msg("finished issuing EUUIs")
}
