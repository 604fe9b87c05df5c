package toolbake

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Platform holds tool definitions and opens live instances of them. It is the
// runtime's composition root: middleware, hooks, default timeout, and the
// shutdown lifecycle all live here. Safe for concurrent use.
type Platform struct {
	mu          sync.Mutex
	defs        map[string]*ToolDefinition
	middlewares []Middleware
	opts        platformOptions
	done        chan struct{}
	running     sync.WaitGroup
}

// NewPlatform creates a Platform with the given options.
func NewPlatform(opts ...PlatformOption) *Platform {
	o := platformOptions{
		recoverPanics: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Platform{
		defs: make(map[string]*ToolDefinition),
		opts: o,
		done: make(chan struct{}),
	}
}

// Register adds a tool definition. A definition with the same name replaces
// the previous one; instances already open keep the definition they were
// opened with.
func (p *Platform) Register(def *ToolDefinition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defs[def.name] = def
}

// Definition returns the registered tool with the given name, or (nil, false).
func (p *Platform) Definition(name string) (*ToolDefinition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	def, ok := p.defs[name]
	return def, ok
}

// AllDefinitions returns all registered tools sorted by name for
// deterministic order (e.g. for the shell's tool catalog).
func (p *Platform) AllDefinitions() []*ToolDefinition {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.defs))
	for name := range p.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*ToolDefinition, 0, len(names))
	for _, name := range names {
		out = append(out, p.defs[name])
	}
	return out
}

// Use stores the given middlewares (onion order: first middleware is
// outermost). They wrap the handler closure of every instance opened after
// this call; instances already open keep their chain.
func (p *Platform) Use(middlewares ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = middlewares
}

// Open creates a live instance of the named tool: a fresh widget value store,
// a fresh dependency loader cache, and a fresh handler closure built by the
// tool's factory (whose captured state becomes the instance's retained
// state). The host binds containers and calls Init to fire the initial load.
func (p *Platform) Open(name string, opts ...InstanceOption) (*Instance, error) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		return nil, ErrShutdown
	default:
	}
	def, ok := p.defs[name]
	middlewares := p.middlewares
	p.mu.Unlock()
	if !ok {
		return nil, ErrToolNotFound
	}

	var io instanceOptions
	for _, opt := range opts {
		opt(&io)
	}

	ctx, cancel := context.WithCancel(context.Background())
	inst := &Instance{
		id:       uuid.NewString(),
		tool:     def,
		platform: p,
		store:    newStore(def),
		loader:   newLoader(io.load),
		frags:    newFragmentManager(io.runner),
		ctx:      ctx,
		cancel:   cancel,
	}
	inst.sched = newScheduler(inst)
	inst.exec = &executor{inst: inst}

	env := &Env{instanceID: inst.id, loader: inst.loader}
	handler := def.factory(env)
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	inst.handler = handler
	return inst, nil
}

// Shutdown closes the platform for new triggers and waits for in-flight
// invocations to settle or ctx to cancel. Open instances stay readable but
// further triggers fail with ErrShutdown.
func (p *Platform) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		return nil
	default:
		close(p.done)
	}
	p.mu.Unlock()
	done := make(chan struct{})
	go func() {
		p.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginRun registers an invocation run loop with the platform lifecycle;
// refused once Shutdown has begun.
func (p *Platform) beginRun() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return ErrShutdown
	default:
	}
	p.running.Add(1)
	return nil
}

func (p *Platform) endRun() {
	p.running.Done()
}
