// Command nodeIssuer issues EUUIs whose first quarter carries a snowflake id:
//
//	| 64 bits: 1bit(0) | 41bit ms since Epoch | 10bit worker | 12bit sequence | 64 bits: zero |
//
// and whose other three quarters are random. Worker ids are registered in ZooKeeper and
// cached in a local file so a node keeps its id across restarts.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/rs/zerolog"
	"lukechampine.com/uint128"

	"github.com/Lzww0608/geuui"
	"github.com/Lzww0608/geuui/internal/config"
	"github.com/Lzww0608/geuui/internal/log"
)

const (
	Epoch int64 = 1672531200000 // UTC: 2023-01-01 00:00:00

	WorkerIDBits = 10 // max 1024 nodes
	SequenceBits = 12 // max 4096 ids/ms

	WorkerIDShift  = SequenceBits
	TimestampShift = SequenceBits + WorkerIDBits
	SequenceMask   = -1 ^ (-1 << SequenceBits)
	WorkerIDMask   = -1 ^ (-1 << WorkerIDBits)

	ZKRootPath = "/geuui_node"

	// maxBackwardWait is the largest clock regression NextSnowflake waits out.
	maxBackwardWait = 5
)

var (
	errClockBackwards = errors.New("clock moved backwards")
	errBadWorkerID    = errors.New("worker id out of range")
)

// nowMs returns the current time in milliseconds since the Unix epoch.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// NodeInfo is the state stored for each worker in ZooKeeper and in the cache file.
type NodeInfo struct {
	LastTime   int64 `json:"last_time"`
	CreateTime int64 `json:"create_time"`
	WorkerID   int64 `json:"worker_id"`
}

// registry stores NodeInfo under a key. *zkRegistry is the production implementation.
type registry interface {
	Load(key string) (NodeInfo, bool, error)
	Save(key string, info NodeInfo, create bool) error
}

// zkRegistry keeps NodeInfo as JSON payloads of ZooKeeper nodes.
type zkRegistry struct {
	conn *zk.Conn
}

func newZKRegistry(servers []string) (*zkRegistry, error) {
	conn, _, err := zk.Connect(servers, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect zk failed: %w", err)
	}
	return &zkRegistry{conn: conn}, nil
}

func (r *zkRegistry) Load(key string) (NodeInfo, bool, error) {
	var info NodeInfo
	data, _, err := r.conn.Get(key)
	if errors.Is(err, zk.ErrNoNode) {
		return info, false, nil
	}
	if err != nil {
		return info, false, fmt.Errorf("get node info failed: %w", err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, false, fmt.Errorf("decode node info: %w", err)
	}
	return info, true, nil
}

func (r *zkRegistry) Save(key string, info NodeInfo, create bool) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if create {
		if err := r.ensurePath(path.Dir(key)); err != nil {
			return err
		}
		_, err = r.conn.Create(key, data, 0, zk.WorldACL(zk.PermAll))
	} else {
		_, err = r.conn.Set(key, data, -1)
	}
	return err
}

// ensurePath creates p and every missing parent node.
func (r *zkRegistry) ensurePath(p string) error {
	if p == "/" || p == "." {
		return nil
	}
	exists, _, err := r.conn.Exists(p)
	if err != nil || exists {
		return err
	}
	if err := r.ensurePath(path.Dir(p)); err != nil {
		return err
	}
	_, err = r.conn.Create(p, []byte{}, 0, zk.WorldACL(zk.PermAll))
	if errors.Is(err, zk.ErrNodeExists) {
		return nil
	}
	return err
}

func (r *zkRegistry) Close() {
	r.conn.Close()
}

// NodeIssuer generates snowflake-prefixed EUUIs for one registered worker.
type NodeIssuer struct {
	mu       sync.Mutex
	lastTime   int64
	workerID   int64
	sequence   int64
	createTime int64

	gen    *geuui.Generator
	reg    registry
	key    string
	cache  string
	logger zerolog.Logger
}

// NewNodeIssuer registers (or recovers) the worker id of service:port and returns an issuer for it.
func NewNodeIssuer(reg registry, gen *geuui.Generator, cfg config.NodeConfig, logger zerolog.Logger) (*NodeIssuer, error) {
	n := &NodeIssuer{
		gen:    gen,
		reg:    reg,
		key:    fmt.Sprintf("%s/%s/%d", ZKRootPath, cfg.Service, cfg.Port),
		cache:  filepath.Join(cfg.CacheDir, fmt.Sprintf(".geuui_node_%d", cfg.Port)),
		logger: logger,
	}

	info, err := n.registerOrRecover(int64(cfg.Port) & WorkerIDMask)
	if err != nil {
		return nil, err
	}
	n.workerID = info.WorkerID
	n.createTime = info.CreateTime
	n.logger = logger.With().Int64(log.FieldWorker, info.WorkerID).Logger()
	n.logger.Info().Msg("node issuer initialized")
	return n, nil
}

// registerOrRecover finds the worker id in ZooKeeper, then in the local cache, and falls
// back to fallbackID. It refuses to start if the clock is behind the last recorded time.
func (n *NodeIssuer) registerOrRecover(fallbackID int64) (NodeInfo, error) {
	now := nowMs()

	info, exists, err := n.reg.Load(n.key)
	if err != nil {
		return NodeInfo{}, err
	}

	if exists {
		if now < info.LastTime {
			return NodeInfo{}, fmt.Errorf("%w: %d < %d", errClockBackwards, now, info.LastTime)
		}
		n.logger.Info().Int64(log.FieldWorker, info.WorkerID).Msg("recovered worker id from zk")
	} else {
		workerID := fallbackID
		if cached, err := n.loadLocalCache(); err == nil {
			if now < cached.LastTime {
				return NodeInfo{}, fmt.Errorf("%w: %d < %d", errClockBackwards, now, cached.LastTime)
			}
			workerID = cached.WorkerID
			n.logger.Info().Int64(log.FieldWorker, workerID).Msg("recovered worker id from local cache")
		}
		info = NodeInfo{WorkerID: workerID, CreateTime: now}
	}

	if info.WorkerID < 0 || info.WorkerID > WorkerIDMask {
		return NodeInfo{}, fmt.Errorf("%w: %d", errBadWorkerID, info.WorkerID)
	}

	info.LastTime = now
	if err := n.reg.Save(n.key, info, !exists); err != nil {
		return NodeInfo{}, fmt.Errorf("register or update node info failed: %w", err)
	}
	if err := n.saveLocalCache(info); err != nil {
		n.logger.Warn().Err(err).Msg("failed to write local cache")
	}
	return info, nil
}

// NextSnowflake returns the next 63-bit snowflake id of this worker.
func (n *NodeIssuer) NextSnowflake() (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := nowMs()

	if now < n.lastTime {
		offset := n.lastTime - now
		if offset > maxBackwardWait {
			return 0, fmt.Errorf("%w by %d ms", errClockBackwards, offset)
		}
		time.Sleep(time.Duration(offset) * time.Millisecond)
		now = nowMs()
		if now < n.lastTime {
			return 0, fmt.Errorf("%w, refused to generate id", errClockBackwards)
		}
	}

	if now == n.lastTime {
		n.sequence = (n.sequence + 1) & SequenceMask
		if n.sequence == 0 {
			// sequence exhausted for this millisecond
			for now <= n.lastTime {
				now = nowMs()
			}
		}
	} else {
		n.sequence = 0
	}

	n.lastTime = now

	return ((now - Epoch) << TimestampShift) |
		(n.workerID << WorkerIDShift) |
		n.sequence, nil
}

// Issue returns a new EUUI whose first quarter holds the next snowflake id in its high 64 bits.
func (n *NodeIssuer) Issue() (geuui.EUUI, error) {
	sf, err := n.NextSnowflake()
	if err != nil {
		return geuui.Nil, err
	}
	return n.gen.NewWithQuarter(geuui.First, uint128.New(0, uint64(sf)))
}

// heartbeat records the node's last time in ZooKeeper and the cache file until stop closes.
func (n *NodeIssuer) heartbeat(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		now := nowMs()
		n.mu.Lock()
		last := n.lastTime
		n.mu.Unlock()
		if now < last {
			n.logger.Error().Int64("local", now).Int64("last", last).Msg("clock rollback detected during heartbeat")
			continue
		}

		info := NodeInfo{WorkerID: n.workerID, CreateTime: n.createTime, LastTime: now}
		if err := n.reg.Save(n.key, info, false); err != nil {
			n.logger.Warn().Err(err).Msg("heartbeat upload failed")
		}
		if err := n.saveLocalCache(info); err != nil {
			n.logger.Warn().Err(err).Msg("failed to write local cache")
		}
	}
}

func (n *NodeIssuer) saveLocalCache(info NodeInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(n.cache, data, 0o644)
}

func (n *NodeIssuer) loadLocalCache() (NodeInfo, error) {
	var info NodeInfo
	data, err := os.ReadFile(n.cache)
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

// SnowflakeOf extracts the snowflake id stored in the first quarter of id.
func SnowflakeOf(id geuui.EUUI) int64 {
	q, _ := id.Quarter(0)
	return int64(q.Hi)
}

func main() {
	// Requires a ZooKeeper at node.servers, e.g.
	// docker run --name some-zookeeper -p 2181:2181 -d zookeeper
	cfg, err := config.Load("")
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Log.ServiceName = "node-issuer"
	log.Init(cfg.Log)
	logger := log.L()

	reg, err := newZKRegistry(cfg.Node.Servers)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect zookeeper")
	}
	defer reg.Close()

	issuer, err := NewNodeIssuer(reg, geuui.NewGenerator(), cfg.Node, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init node issuer")
	}

	stop := make(chan struct{})
	go issuer.heartbeat(3*time.Second, stop)
	defer close(stop)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id, err := issuer.Issue()
				if err != nil {
					logger.Error().Err(err).Msg("issue failed")
					continue
				}
				fmt.Println(id)
			}
		}()
	}
	wg.Wait()
	logger.Info().Msg("done")
}
