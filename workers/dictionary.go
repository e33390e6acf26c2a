package workers

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/detection"
)

// CandidateLoader lists every entity that detection should know about.
type CandidateLoader func() ([]detection.Candidate, error)

// DictionaryCache keeps a compiled detection dictionary warm. Invalidate marks
// it stale and queues a background rebuild; Dictionary rebuilds synchronously
// when called before the worker catches up, so readers never see stale data.
type DictionaryCache struct {
	load CandidateLoader
	log  *zap.Logger

	RebuildQueue chan struct{}
	StopChan     chan struct{}
	Wg           sync.WaitGroup

	mu         sync.RWMutex
	dict       *detection.Dictionary
	generation uint64
	built      uint64

	buildMu  sync.Mutex
	stopOnce sync.Once
}

// NewDictionaryCache starts the rebuild worker and queues an initial build.
func NewDictionaryCache(load CandidateLoader, log *zap.Logger) *DictionaryCache {
	if log == nil {
		log = zap.NewNop()
	}
	c := &DictionaryCache{
		load:         load,
		log:          log.Named("dictionary"),
		RebuildQueue: make(chan struct{}, 1),
		StopChan:     make(chan struct{}),
		generation:   1,
	}

	c.Wg.Add(1)
	go c.worker()
	c.RebuildQueue <- struct{}{}
	return c
}

func (c *DictionaryCache) worker() {
	defer c.Wg.Done()
	for {
		select {
		case <-c.RebuildQueue:
			if _, err := c.Dictionary(); err != nil {
				c.log.Warn("background rebuild failed", zap.Error(err))
			}
		case <-c.StopChan:
			c.log.Debug("dictionary worker stopping")
			return
		}
	}
}

func (c *DictionaryCache) current() (*detection.Dictionary, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dict, c.generation, c.dict != nil && c.built == c.generation
}

// Dictionary returns an up to date dictionary, compiling one if needed.
func (c *DictionaryCache) Dictionary() (*detection.Dictionary, error) {
	if d, _, fresh := c.current(); fresh {
		return d, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	d, gen, fresh := c.current()
	if fresh {
		return d, nil
	}

	candidates, err := c.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load detection candidates: %w", err)
	}
	d, err = detection.Compile(candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to compile detection dictionary: %w", err)
	}

	c.mu.Lock()
	c.dict = d
	c.built = gen
	c.mu.Unlock()

	c.log.Debug("dictionary rebuilt",
		zap.Uint64("generation", gen),
		zap.Int("entities", len(candidates)),
		zap.Int("surface_forms", d.Len()))
	return d, nil
}

// Invalidate marks the dictionary stale and queues a rebuild. Rebuild
// requests coalesce while one is already queued.
func (c *DictionaryCache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	select {
	case c.RebuildQueue <- struct{}{}:
	default:
	}
}

// Stop shuts the worker down and waits for it.
func (c *DictionaryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.StopChan)
		c.Wg.Wait()
	})
}
