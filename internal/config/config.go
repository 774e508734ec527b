package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Solver identifies which backend a device block targets.
type Solver string

const (
	SolverDesktop Solver = "desktop"
	SolverCloud   Solver = "cloud"
)

// Units selects the presentation unit for normalized power quantities.
type Units string

const (
	UnitsLinear Units = "linear"
	UnitsDB     Units = "db"
)

// Settings holds the global scalar parameters shared by all devices in a run.
type Settings struct {
	Wavelength      float64 // center wavelength (µm)
	WavStep         float64 // wavelength step (µm)
	Temperature     float64 // simulation temperature (K)
	MaterialType    string  // "universal" or "native"
	GuidingMaterial string  // waveguide core material, e.g. "Si", "SiN"
	LumapiPath      string  // desktop solver installation root
	SolverZMin      float64 // simulation region z min (µm)
	SolverZMax      float64 // simulation region z max (µm)

	// CladdingMaterial surrounds the core, e.g. "sio2". Empty means the
	// solvers use their own background default and no cladding model is
	// resolved or assigned.
	CladdingMaterial string

	MaterialsDir string
	OutputDir    string
	Units        Units
	Margin       float64 // domain padding around the device bounding box (µm)
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Device holds the per-device parameters for a single simulation run.
type Device struct {
	Name        string
	Layout      string  // path to the layout JSON
	Solver      Solver  // backend selection
	Resolution  int     // cells per wavelength
	SpanNm      float64 // wavelength span (nm)
	ModeIndex   int     // injected mode index, solver-relative convention
	Run         bool    // false = dry configuration only
	ExtendPorts bool
	Extension   float64 // port extension length (µm)
	Tolerance   float64 // cross-solver comparison tolerance (linear power)
}

// File is the fully validated configuration for one invocation.
type File struct {
	Path     string
	Settings Settings
	Devices  []*Device
}

// DeviceByName returns the first device block with the given name, or nil.
// The same device name may appear once per solver.
func (f *File) DeviceByName(name string) *Device {
	for _, d := range f.Devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// DevicesByName returns every device block with the given name, one per
// solver it targets.
func (f *File) DevicesByName(name string) []*Device {
	var out []*Device
	for _, d := range f.Devices {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// hclFile mirrors the on-disk HCL structure. All attributes are decoded as
// optional pointers so required-key checks can name the missing key instead
// of surfacing a generic decode diagnostic.
type hclFile struct {
	Settings *hclSettings `hcl:"settings,block"`
	Devices  []*hclDevice `hcl:"device,block"`
}

type hclSettings struct {
	Wavelength      *float64 `hcl:"wavelength,optional"`
	WavStep         *float64 `hcl:"wav_step,optional"`
	Temperature     *float64 `hcl:"temperature,optional"`
	MaterialType    *string  `hcl:"material_type,optional"`
	GuidingMaterial *string  `hcl:"guiding_material,optional"`
	LumapiPath      *string  `hcl:"lumapi_path,optional"`
	SolverZMin      *float64 `hcl:"solver_z_min,optional"`
	SolverZMax      *float64 `hcl:"solver_z_max,optional"`

	CladdingMaterial *string `hcl:"cladding_material,optional"`

	MaterialsDir *string  `hcl:"materials_dir,optional"`
	OutputDir    *string  `hcl:"output_dir,optional"`
	Units        *string  `hcl:"units,optional"`
	Margin       *float64 `hcl:"margin,optional"`
	PollInterval *string  `hcl:"poll_interval,optional"`
	PollTimeout  *string  `hcl:"poll_timeout,optional"`
}

type hclDevice struct {
	Name        string   `hcl:"name,label"`
	Layout      *string  `hcl:"layout,optional"`
	Solver      *string  `hcl:"solver,optional"`
	Resolution  *int     `hcl:"resolution,optional"`
	Span        *float64 `hcl:"span,optional"`
	ModeIndex   *int     `hcl:"mode_index,optional"`
	Run         *bool    `hcl:"run,optional"`
	ExtendPorts *bool    `hcl:"extend_ports,optional"`
	Extension   *float64 `hcl:"extension,optional"`
	Tolerance   *float64 `hcl:"tolerance,optional"`
}

// evalContext exposes the unit-conversion constants device blocks commonly
// use in expressions, e.g. `extension = 10 * nm / nm`.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"um": cty.NumberFloatVal(1.0),   // canonical length unit
			"nm": cty.NumberFloatVal(0.001), // nanometers in µm
		},
	}
}

// Load parses and validates the HCL configuration at path.
func Load(path string) (*File, error) {
	parser := hclparse.NewParser()
	hf, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &Error{Path: path, Detail: "parse failed", Err: diags}
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(hf.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, &Error{Path: path, Detail: "decode failed", Err: diags}
	}

	if raw.Settings == nil {
		return nil, &Error{Path: path, Detail: "missing settings block"}
	}

	settings, err := buildSettings(raw.Settings)
	if err != nil {
		return nil, &Error{Path: path, Detail: "invalid settings", Err: err}
	}

	if len(raw.Devices) == 0 {
		return nil, &Error{Path: path, Detail: "no device blocks defined"}
	}

	file := &File{Path: path, Settings: *settings}
	// A device name may appear once per solver, so the same layout can run
	// on both backends and be compared afterward.
	seen := map[string]bool{}
	for _, rd := range raw.Devices {
		dev, err := buildDevice(rd)
		if err != nil {
			return nil, &Error{Path: path, Detail: fmt.Sprintf("invalid device %q", rd.Name), Err: err}
		}
		key := dev.Name + "/" + string(dev.Solver)
		if seen[key] {
			return nil, &Error{Path: path,
				Detail: fmt.Sprintf("duplicate device block %q for solver %q", dev.Name, dev.Solver)}
		}
		seen[key] = true
		file.Devices = append(file.Devices, dev)
	}
	return file, nil
}

func buildSettings(raw *hclSettings) (*Settings, error) {
	// The eight keys below are required by contract; nothing is assumed.
	switch {
	case raw.Wavelength == nil:
		return nil, errMissing("wavelength")
	case raw.WavStep == nil:
		return nil, errMissing("wav_step")
	case raw.Temperature == nil:
		return nil, errMissing("temperature")
	case raw.MaterialType == nil:
		return nil, errMissing("material_type")
	case raw.GuidingMaterial == nil:
		return nil, errMissing("guiding_material")
	case raw.LumapiPath == nil:
		return nil, errMissing("lumapi_path")
	case raw.SolverZMin == nil:
		return nil, errMissing("solver_z_min")
	case raw.SolverZMax == nil:
		return nil, errMissing("solver_z_max")
	}

	s := &Settings{
		Wavelength:      *raw.Wavelength,
		WavStep:         *raw.WavStep,
		Temperature:     *raw.Temperature,
		MaterialType:    *raw.MaterialType,
		GuidingMaterial: *raw.GuidingMaterial,
		LumapiPath:      *raw.LumapiPath,
		SolverZMin:      *raw.SolverZMin,
		SolverZMax:      *raw.SolverZMax,
		MaterialsDir:    "materials_library",
		OutputDir:       "results",
		Units:           UnitsLinear,
		Margin:          1.0,
		PollInterval:    5 * time.Second,
		PollTimeout:     2 * time.Hour,
	}

	if s.Wavelength <= 0 {
		return nil, fmt.Errorf("wavelength must be > 0, got %v", s.Wavelength)
	}
	if s.WavStep <= 0 {
		return nil, fmt.Errorf("wav_step must be > 0, got %v", s.WavStep)
	}
	if s.Temperature <= 0 {
		return nil, fmt.Errorf("temperature must be > 0 K, got %v", s.Temperature)
	}
	if s.MaterialType != "universal" && s.MaterialType != "native" {
		return nil, fmt.Errorf("material_type must be \"universal\" or \"native\", got %q", s.MaterialType)
	}
	if s.SolverZMax <= s.SolverZMin {
		return nil, fmt.Errorf("solver_z_max (%v) must exceed solver_z_min (%v)", s.SolverZMax, s.SolverZMin)
	}

	if raw.CladdingMaterial != nil {
		s.CladdingMaterial = *raw.CladdingMaterial
	}
	if raw.MaterialsDir != nil {
		s.MaterialsDir = *raw.MaterialsDir
	}
	if raw.OutputDir != nil {
		s.OutputDir = *raw.OutputDir
	}
	if raw.Units != nil {
		switch Units(*raw.Units) {
		case UnitsLinear, UnitsDB:
			s.Units = Units(*raw.Units)
		default:
			return nil, fmt.Errorf("units must be \"linear\" or \"db\", got %q", *raw.Units)
		}
	}
	if raw.Margin != nil {
		if *raw.Margin < 0 {
			return nil, fmt.Errorf("margin must be >= 0, got %v", *raw.Margin)
		}
		s.Margin = *raw.Margin
	}
	if raw.PollInterval != nil {
		d, err := time.ParseDuration(*raw.PollInterval)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid poll_interval %q", *raw.PollInterval)
		}
		s.PollInterval = d
	}
	if raw.PollTimeout != nil {
		d, err := time.ParseDuration(*raw.PollTimeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid poll_timeout %q", *raw.PollTimeout)
		}
		s.PollTimeout = d
	}
	return s, nil
}

func buildDevice(raw *hclDevice) (*Device, error) {
	switch {
	case raw.Layout == nil:
		return nil, errMissing("layout")
	case raw.Solver == nil:
		return nil, errMissing("solver")
	case raw.Resolution == nil:
		return nil, errMissing("resolution")
	case raw.Span == nil:
		return nil, errMissing("span")
	case raw.ModeIndex == nil:
		return nil, errMissing("mode_index")
	}

	d := &Device{
		Name:       raw.Name,
		Layout:     *raw.Layout,
		Solver:     Solver(*raw.Solver),
		Resolution: *raw.Resolution,
		SpanNm:     *raw.Span,
		ModeIndex:  *raw.ModeIndex,
		Extension:  10.0,
		Tolerance:  0.05,
	}

	if d.Solver != SolverDesktop && d.Solver != SolverCloud {
		return nil, fmt.Errorf("solver must be \"desktop\" or \"cloud\", got %q", *raw.Solver)
	}
	if d.Resolution <= 0 {
		return nil, fmt.Errorf("resolution must be > 0, got %d", d.Resolution)
	}
	if d.SpanNm <= 0 {
		return nil, fmt.Errorf("span must be > 0 nm, got %v", d.SpanNm)
	}
	if d.ModeIndex < 0 {
		return nil, fmt.Errorf("mode_index must be >= 0, got %d", d.ModeIndex)
	}

	if raw.Run != nil {
		d.Run = *raw.Run
	}
	if raw.ExtendPorts != nil {
		d.ExtendPorts = *raw.ExtendPorts
	}
	if raw.Extension != nil {
		if *raw.Extension <= 0 {
			return nil, fmt.Errorf("extension must be > 0 µm, got %v", *raw.Extension)
		}
		d.Extension = *raw.Extension
	}
	if raw.Tolerance != nil {
		if *raw.Tolerance <= 0 {
			return nil, fmt.Errorf("tolerance must be > 0, got %v", *raw.Tolerance)
		}
		d.Tolerance = *raw.Tolerance
	}
	return d, nil
}

// SpanUm returns the wavelength span in µm.
func (d *Device) SpanUm() float64 { return d.SpanNm * 0.001 }

func errMissing(key string) error {
	return fmt.Errorf("required key %q is not set", key)
}
