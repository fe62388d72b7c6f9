package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

var (
	// ErrUnsupportedFormat is returned for files the backend cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrLoaderClosed is returned for loads requested after Close.
	ErrLoaderClosed = errors.New("loader closed")
)

// LoadCallback receives the outcome of an asynchronous load on the frame thread.
type LoadCallback func(m model.Model, err error)

// loadResult is a finished asynchronous load waiting for Poll.
type loadResult struct {
	model     model.Model
	err       error
	callbacks []LoadCallback
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]model.Model

	backend loaderBackend

	workers  int
	pool     worker.DynamicWorkerPool
	inflight map[string][]LoadCallback
	done     []loadResult
	taskID   int
	closed   bool
}

// Loader defines the public-facing interface for loading and caching 3D models.
// It abstracts the file format behind a backend and manages a cache of previously
// loaded models keyed by file path.
//
// Paths may carry a sub-asset label (path#Scene0, path#Animation1); the label is
// ignored for loading and caching, see ParseAssetLabel to read it.
type Loader interface {
	// Load imports a model file and caches the result.
	// If the model is already cached (by file path), the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the model file, optionally labelled
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails
	Load(path string) (model.Model, error)

	// LoadReader imports a self-contained model from a reader stream and caches it
	// by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (model.Model, error)

	// LoadAsync imports a model on the worker pool. The callback runs from Poll,
	// on whichever goroutine calls it. Concurrent requests for the same file share
	// one import. Cached models complete on the next Poll.
	//
	// Parameters:
	//   - path: the file path to the model file, optionally labelled
	//   - callback: receives the model or the load error
	LoadAsync(path string, callback LoadCallback)

	// Poll delivers the callbacks of every finished asynchronous load.
	//
	// Returns:
	//   - int: the number of callbacks run
	Poll() int

	// Pending returns the number of asynchronous loads that have not been delivered yet.
	//
	// Returns:
	//   - int: loads in flight plus loads waiting for Poll
	Pending() int

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Close stops the worker pool. Loads requested afterwards fail with ErrLoaderClosed.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache: make(map[string]model.Model),
		inflight:   make(map[string][]LoadCallback),
		workers:    2,
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	default:
		panic(fmt.Sprintf("loader: unknown backend type %d", backendType))
	}

	for _, option := range options {
		option(l)
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, 16, time.Second)
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	file, err := l.resolvePath(path)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	closed := l.closed
	cached, ok := l.modelCache[file]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if closed {
		return nil, ErrLoaderClosed
	}

	return l.loadFile(file)
}

// loadFile imports a file through the backend and caches it.
func (l *loader) loadFile(file string) (model.Model, error) {
	start := time.Now()
	m, err := l.backend.Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file, err)
	}
	slog.Info("model loaded",
		slog.String("path", file),
		slog.Int("nodes", len(m.Nodes())),
		slog.Int("meshes", len(m.Meshes())),
		slog.Int("animations", m.AnimationCount()),
		slog.Duration("took", time.Since(start)),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modelCache[file]; ok {
		return cached, nil
	}
	l.modelCache[file] = m
	return m, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (model.Model, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	m, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()

	return m, nil
}

func (l *loader) LoadAsync(path string, callback LoadCallback) {
	file, err := l.resolvePath(path)

	l.mu.Lock()
	switch {
	case err != nil:
		l.done = append(l.done, loadResult{err: err, callbacks: []LoadCallback{callback}})
		l.mu.Unlock()
		return
	case l.modelCache[file] != nil:
		l.done = append(l.done, loadResult{model: l.modelCache[file], callbacks: []LoadCallback{callback}})
		l.mu.Unlock()
		return
	case l.closed:
		l.done = append(l.done, loadResult{err: ErrLoaderClosed, callbacks: []LoadCallback{callback}})
		l.mu.Unlock()
		return
	}
	if waiting, ok := l.inflight[file]; ok {
		l.inflight[file] = append(waiting, callback)
		l.mu.Unlock()
		return
	}
	l.inflight[file] = []LoadCallback{callback}
	id := l.taskID
	l.taskID++
	l.mu.Unlock()

	// SubmitTask blocks while the queue is full, so it must run without the lock.
	l.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: file,
		Do: func() (any, error) {
			m, err := l.loadFile(file)
			if err != nil {
				slog.Error("async model load failed", slog.String("path", file), slog.Any("error", err))
			}

			l.mu.Lock()
			defer l.mu.Unlock()
			l.done = append(l.done, loadResult{model: m, err: err, callbacks: l.inflight[file]})
			delete(l.inflight, file)
			return m, err
		},
	})
}

func (l *loader) Poll() int {
	l.mu.Lock()
	done := l.done
	l.done = nil
	l.mu.Unlock()

	n := 0
	for _, r := range done {
		for _, cb := range r.callbacks {
			cb(r.model, r.err)
			n++
		}
	}
	return n
}

func (l *loader) Pending() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, waiting := range l.inflight {
		n += len(waiting)
	}
	for _, r := range l.done {
		n += len(r.callbacks)
	}
	return n
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.pool.Stop()
}

// resolvePath strips any sub-asset label and checks the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolvePath(path string) (string, error) {
	ref, err := ParseAssetLabel(path)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(ref.Path))
	switch ext {
	case ".gltf", ".glb":
		return ref.Path, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
