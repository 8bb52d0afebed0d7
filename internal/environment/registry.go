package environment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/firefly-engineering/sandnet-ctl/internal/config"
	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
)

// Registry stores named environment configurations as JSON files, one per
// environment, and tracks which one is currently active.
type Registry struct {
	mu      sync.RWMutex
	envsDir string
	active  string
}

// NewRegistry creates a registry rooted at envsDir.
func NewRegistry(envsDir string) *Registry {
	return &Registry{envsDir: envsDir}
}

func (r *Registry) envPath(name string) (string, error) {
	return config.SafePath(r.envsDir, name, ".json")
}

// Create validates and persists a new environment. Ports and working
// directory must not collide with any existing environment.
func (r *Registry) Create(env *Environment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := env.Validate(); err != nil {
		return errors.ValidationError(err.Error())
	}

	existing, err := r.list()
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Name == env.Name {
			return errors.ValidationError(fmt.Sprintf("environment %s already exists", env.Name))
		}
		if err := checkCollision(env, other); err != nil {
			return errors.ValidationError(err.Error())
		}
	}

	if env.CreatedAt.IsZero() {
		env.CreatedAt = time.Now().UTC()
	}
	return r.save(env)
}

// checkCollision reports a port or working-directory clash between two
// environments. Uniqueness here is the sole guard against two processes
// ever contending for the same OS resources.
func checkCollision(a, b *Environment) error {
	for _, pair := range [][2]int{
		{a.ControlPort, b.ControlPort},
		{a.ControlPort, b.EventPort},
		{a.EventPort, b.ControlPort},
		{a.EventPort, b.EventPort},
	} {
		if pair[0] == pair[1] {
			return fmt.Errorf("port %d already used by environment %s", pair[0], b.Name)
		}
	}
	if filepath.Clean(a.WorkDir) == filepath.Clean(b.WorkDir) {
		return fmt.Errorf("working directory %s already used by environment %s", a.WorkDir, b.Name)
	}
	return nil
}

// Get loads an environment by name.
func (r *Registry) Get(name string) (*Environment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(name)
}

// List returns all environments sorted by name.
func (r *Registry) List() ([]*Environment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list()
}

// Update replaces an existing environment's configuration. The active
// environment cannot be mutated.
func (r *Registry) Update(env *Environment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == env.Name {
		return errors.EnvInUse(env.Name)
	}

	if err := env.Validate(); err != nil {
		return errors.ValidationError(err.Error())
	}

	prev, err := r.load(env.Name)
	if err != nil {
		return err
	}

	existing, err := r.list()
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Name == env.Name {
			continue
		}
		if err := checkCollision(env, other); err != nil {
			return errors.ValidationError(err.Error())
		}
	}

	env.CreatedAt = prev.CreatedAt
	return r.save(env)
}

// Delete removes an environment. The active environment cannot be deleted.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == name {
		return errors.EnvInUse(name)
	}

	path, err := r.envPath(name)
	if err != nil {
		return errors.ValidationError(err.Error())
	}
	if _, err := os.Stat(path); err != nil {
		return errors.EnvNotFound(name)
	}
	return os.Remove(path)
}

// Exists reports whether an environment with the given name is defined.
func (r *Registry) Exists(name string) bool {
	path, err := r.envPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// SetActive records which environment is active. Called exclusively by the
// control coordinator; an empty name clears the active environment.
func (r *Registry) SetActive(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = name
}

// Active returns the name of the active environment, or "" if none.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registry) load(name string) (*Environment, error) {
	path, err := r.envPath(name)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.EnvNotFound(name)
	}

	var env Environment
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse environment %s", name), err)
	}
	return &env, nil
}

func (r *Registry) list() ([]*Environment, error) {
	entries, err := os.ReadDir(r.envsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.ConfigError("failed to read environments directory", err)
	}

	var envs []*Environment
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := entry.Name()[:len(entry.Name())-5]
		env, err := r.load(name)
		if err != nil {
			continue
		}
		envs = append(envs, env)
	}

	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })
	return envs, nil
}

func (r *Registry) save(env *Environment) error {
	if err := os.MkdirAll(r.envsDir, 0755); err != nil {
		return errors.ConfigError("failed to create environments directory", err)
	}

	path, err := r.envPath(env.Name)
	if err != nil {
		return errors.ValidationError(err.Error())
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errors.ConfigError("failed to marshal environment", err)
	}
	data = append(data, '\n')

	return os.WriteFile(path, data, 0644)
}
