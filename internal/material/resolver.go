package material

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/photonlab/fdtdbench/internal/fsutil"
)

// NotFoundError reports that a symbolic material name has no mapping in the
// selected library for the selected solver.
type NotFoundError struct {
	Name    string
	Library string // "universal" or "native"
	Solver  string
	Path    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("material %q not found in %s library for solver %s (looked for %s)",
		e.Name, e.Library, e.Solver, e.Path)
}

type cacheKey struct {
	library string
	solver  string
	name    string
}

// Resolver loads dispersion models from a materials library directory.
//
// File naming convention:
//
//	universal_<name>.json           pole-residue fit, shared by both solvers
//	<solver>_<name>.json            solver-bundled tabulated n,k data
type Resolver struct {
	dir   string
	cache *lru.Cache[cacheKey, Model]
}

// NewResolver creates a resolver over the given library directory.
func NewResolver(dir string) *Resolver {
	// A batch touches a handful of materials; 32 entries is plenty.
	cache, _ := lru.New[cacheKey, Model](32)
	return &Resolver{dir: dir, cache: cache}
}

// Resolve returns the dispersion model for a symbolic material name.
// library is "universal" or "native"; solver selects the native file set.
func (r *Resolver) Resolve(name, library, solver string) (Model, error) {
	key := cacheKey{library: library, solver: solver, name: name}
	if m, ok := r.cache.Get(key); ok {
		return m, nil
	}

	var (
		m   Model
		err error
	)
	switch library {
	case "universal":
		m, err = r.loadUniversal(name, solver)
	case "native":
		m, err = r.loadNative(name, solver)
	default:
		return nil, fmt.Errorf("unknown material library %q", library)
	}
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, m)
	return m, nil
}

// Available lists the model files present in the library directory, sorted
// by file name. Used for diagnostics when a lookup fails.
func (r *Resolver) Available() []string {
	files, err := fsutil.FindFilesByExtension(r.dir, ".json")
	if err != nil {
		return nil
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) loadUniversal(name, solver string) (Model, error) {
	path := filepath.Join(r.dir, "universal_"+name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Name: name, Library: "universal", Solver: solver, Path: path}
	}
	var model PoleResidue
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("universal material %s: %w", path, err)
	}
	if model.Name == "" {
		model.Name = name
	}
	return &model, nil
}

// nativeDoc is the on-disk shape of a tabulated solver-bundled material.
type nativeDoc struct {
	Material string      `json:"material"`
	WavUm    []float64   `json:"wavelength_um"`
	N        []float64   `json:"n"`
	K        []float64   `json:"k"`
	Thermo   ThermoOptic `json:"thermo_optic"`
}

func (r *Resolver) loadNative(name, solver string) (Model, error) {
	path := filepath.Join(r.dir, solver+"_"+name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Name: name, Library: "native", Solver: solver, Path: path}
	}
	var doc nativeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("native material %s: %w", path, err)
	}
	if len(doc.WavUm) < 2 || len(doc.N) != len(doc.WavUm) || len(doc.K) != len(doc.WavUm) {
		return nil, fmt.Errorf("native material %s: wavelength/n/k arrays are inconsistent", path)
	}
	if doc.Material == "" {
		doc.Material = name
	}
	model, err := NewTabulated(doc.Material, doc.WavUm, doc.N, doc.K, doc.Thermo)
	if err != nil {
		return nil, fmt.Errorf("native material %s: %w", path, err)
	}
	return model, nil
}
