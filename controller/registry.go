package controller

import (
	"fmt"
	"os"
	"sync"
)

// Linker maps backing file paths to the registration functions that define
// the controllers of those files. It is the load time equivalent of
// requiring a source file: loading a file runs its registration function
// exactly once per process.
type Linker map[string]func(*Registry)

// RegistryOptions control registry creation.
type RegistryOptions struct {

	// Linker provides the registration units of the application's
	// backing files.
	Linker Linker

	// Exists checks whether a backing file is present. When nil, the
	// filesystem is checked directly. The fscache package provides a
	// cached implementation.
	Exists func(path string) bool

	// Debug enables the post-load verification that a loaded backing
	// file actually registered the expected controller. It distinguishes
	// a missing file from a file with the wrong content, at the cost of
	// an extra lookup per instantiation.
	Debug bool
}

// Registry resolves controller identifiers into fresh controller
// instances. Factories are registered by loading backing files through the
// linker, or directly with Register. Instantiation never uses reflection;
// an identifier not known to the registry cannot be constructed.
type Registry struct {
	mu        sync.Mutex
	factories map[string]func() Controller
	loaded    map[string]bool
	linker    Linker
	exists    func(string) bool
	debug     bool
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func NewRegistry(o RegistryOptions) *Registry {
	if o.Exists == nil {
		o.Exists = fileExists
	}

	return &Registry{
		factories: make(map[string]func() Controller),
		loaded:    make(map[string]bool),
		linker:    o.Linker,
		exists:    o.Exists,
		debug:     o.Debug,
	}
}

// Register associates a controller identifier with its factory.
// Re-registration is idempotent, the last factory wins.
func (r *Registry) Register(name string, factory func() Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Registered reports whether a factory exists for the identifier.
func (r *Registry) Registered(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[name]
	return ok
}

// Load runs the registration unit of a backing file. Repeated loads of the
// same file are no-ops. A file without a registration unit loads
// successfully and registers nothing.
func (r *Registry) Load(file string) {
	r.mu.Lock()
	if r.loaded[file] {
		r.mu.Unlock()
		return
	}

	r.loaded[file] = true
	link := r.linker[file]
	r.mu.Unlock()

	if link != nil {
		link(r)
	}
}

// Instance creates a fresh controller instance for a token. The backing
// file of the token must exist, otherwise the file is not loaded and an
// *InvalidControllerError is returned. In debug mode, a loaded file that
// did not register the expected controller fails with an *IntegrityError.
// Without debug mode, an unregistered identifier fails with a generic
// construction error.
func (r *Registry) Instance(t *Token) (Controller, error) {
	if !r.exists(t.BackingFile) {
		return nil, &InvalidControllerError{Controller: t.Controller, File: t.BackingFile}
	}

	r.Load(t.BackingFile)

	if r.debug && !r.Registered(t.Controller) {
		return nil, &IntegrityError{Controller: t.Controller, File: t.BackingFile}
	}

	r.mu.Lock()
	factory := r.factories[t.Controller]
	r.mu.Unlock()

	if factory == nil {
		return nil, fmt.Errorf("cannot construct controller %q", t.Controller)
	}

	return factory(), nil
}
