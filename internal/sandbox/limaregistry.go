package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LimaRegistryEntry records one previously-created Lima instance so repeat
// sandboxed runs against the same workspace reuse its VM instead of paying
// the create cost again.
type LimaRegistryEntry struct {
	Name       string `toml:"name"`
	ConfigPath string `toml:"config_path"`
	CreatedAt  string `toml:"created_at"`
}

type limaRegistryFile struct {
	Instances []LimaRegistryEntry `toml:"instances"`
}

// LimaRegistry is a TOML-backed record of Lima instances workmux has
// created, stored at <state_dir>/sandbox/lima-instances.toml.
type LimaRegistry struct {
	path string
}

func NewLimaRegistry(stateDir string) *LimaRegistry {
	return &LimaRegistry{path: filepath.Join(stateDir, "sandbox", "lima-instances.toml")}
}

func (r *LimaRegistry) load() (limaRegistryFile, error) {
	var file limaRegistryFile
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return file, nil
	}
	if err != nil {
		return file, fmt.Errorf("reading lima registry: %w", err)
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return file, fmt.Errorf("parsing lima registry: %w", err)
	}
	return file, nil
}

func (r *LimaRegistry) save(file limaRegistryFile) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("creating sandbox state dir: %w", err)
	}
	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating lima registry temp file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(file); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding lima registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Find returns the registered entry for name, if any.
func (r *LimaRegistry) Find(name string) (*LimaRegistryEntry, error) {
	file, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, e := range file.Instances {
		if e.Name == name {
			return &e, nil
		}
	}
	return nil, nil
}

// Put records or updates an entry, keyed by name.
func (r *LimaRegistry) Put(entry LimaRegistryEntry) error {
	file, err := r.load()
	if err != nil {
		return err
	}
	for i, e := range file.Instances {
		if e.Name == entry.Name {
			file.Instances[i] = entry
			return r.save(file)
		}
	}
	file.Instances = append(file.Instances, entry)
	return r.save(file)
}

// Remove deletes an entry by name, if present.
func (r *LimaRegistry) Remove(name string) error {
	file, err := r.load()
	if err != nil {
		return err
	}
	kept := file.Instances[:0]
	for _, e := range file.Instances {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	file.Instances = kept
	return r.save(file)
}
