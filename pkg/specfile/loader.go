// Package specfile implements the Spec Loader (spec.md §4.1): reading and
// merging the declarative inputs for a single directory — topology.yml,
// function.{json,yml,yaml}, vars/<fn>.json, roles/<fn>.json, tags.json —
// and running selected string fields (the topology's name, version,
// infra_dir and config; each function's name, layer_name, description and
// runtime handler, URI, environment and layers) through the
// {{placeholder}} template step before handing the result to the compiler.
package specfile

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/tc-functors/tc/internal/tmpl"
	"github.com/tc-functors/tc/pkg/topology"
)

// ErrSpecParse signals malformed YAML/JSON, fatal at compile time
// (spec.md §7).
type ErrSpecParse struct {
	Path string
	Err  error
}

func (e *ErrSpecParse) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ErrSpecParse) Unwrap() error { return e.Err }

// LoadTopologySpec reads topology.yml from dir. A missing file yields the
// permissive default spec described in spec.md §4.1.
func LoadTopologySpec(dir string, vars tmpl.Vars) (*topology.TopologySpec, error) {
	path := filepath.Join(dir, "topology.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &topology.TopologySpec{Name: "tc", Kind: topology.KindFunction, Dir: dir}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var spec topology.TopologySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, &ErrSpecParse{Path: path, Err: err}
	}
	spec.Dir = dir
	substituteTopologyStrings(&spec, vars)
	return &spec, nil
}

// functionFileNames is the precedence order for function descriptors,
// per spec.md §4.1.
var functionFileNames = []string{"function.json", "function.yml", "function.yaml"}

// LoadFunctionSpec reads the first of function.{json,yml,yaml} present in
// dir. If none exists, it synthesizes a minimal spec named after the
// directory's base name.
func LoadFunctionSpec(dir string, vars tmpl.Vars) (*topology.FunctionSpec, error) {
	for _, name := range functionFileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		fn, err := parseFunctionFile(path, data)
		if err != nil {
			return nil, err
		}
		fn.Dir = dir
		substituteFunctionStrings(fn, vars)
		return fn, nil
	}
	return &topology.FunctionSpec{Name: filepath.Base(dir), Dir: dir}, nil
}

func parseFunctionFile(path string, data []byte) (*topology.FunctionSpec, error) {
	var fn topology.FunctionSpec
	var err error
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &fn)
	} else {
		err = yaml.Unmarshal(data, &fn)
	}
	if err != nil {
		return nil, &ErrSpecParse{Path: path, Err: err}
	}
	return &fn, nil
}

// LoadInfraSpec reads a per-function infra override file. If file is
// empty, returns the hard-coded defaults from spec.md §4.1.
func LoadInfraSpec(file string) (map[string]*topology.InfraSpec, error) {
	if file == "" {
		return topology.DefaultInfraSpec(), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return topology.DefaultInfraSpec(), nil
		}
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var m map[string]*topology.InfraSpec
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ErrSpecParse{Path: file, Err: err}
	}
	if len(m) == 0 {
		return topology.DefaultInfraSpec(), nil
	}
	return m, nil
}

// LoadRoleSpec reads <infraDir>/roles/<fnName>.json, if present.
func LoadRoleSpec(infraDir, fnName string) (*topology.RoleSpec, error) {
	if infraDir == "" {
		return nil, nil
	}
	path := filepath.Join(infraDir, "roles", fnName+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var role topology.RoleSpec
	if err := json.Unmarshal(data, &role); err != nil {
		return nil, &ErrSpecParse{Path: path, Err: err}
	}
	return &role, nil
}

// LoadVars reads vars/<fnName>.json, a flat map merged into a function's
// runtime environment.
func LoadVars(dir, fnName string) (map[string]string, error) {
	path := filepath.Join(dir, "vars", fnName+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ErrSpecParse{Path: path, Err: err}
	}
	return m, nil
}

// LoadTags walks up from dir, at most four levels, looking for tags.json.
// Returns an empty map if none is found (spec.md §4.1 edge case).
func LoadTags(dir string) (map[string]string, error) {
	cur := dir
	for i := 0; i < 4; i++ {
		path := filepath.Join(cur, "tags.json")
		data, err := os.ReadFile(path)
		if err == nil {
			var m map[string]string
			if jerr := json.Unmarshal(data, &m); jerr != nil {
				return nil, &ErrSpecParse{Path: path, Err: jerr}
			}
			return m, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return map[string]string{}, nil
}

// GitRevision runs `git log -n 1 --format=%h <dir>`, used to bind
// {{version}} when a function spec doesn't pin one explicitly.
func GitRevision(dir string) string {
	cmd := exec.Command("git", "log", "-n", "1", "--format=%h", dir)
	out, err := cmd.Output()
	if err != nil {
		klog.V(4).Infof("git revision lookup failed for %s: %v", dir, err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

func substituteTopologyStrings(spec *topology.TopologySpec, vars tmpl.Vars) {
	spec.Name = tmpl.Substitute(spec.Name, vars)
	spec.Version = tmpl.Substitute(spec.Version, vars)
	spec.InfraDir = tmpl.Substitute(spec.InfraDir, vars)
	if spec.Config != nil {
		tmpl.SubstituteMap(spec.Config, vars)
	}
}

func substituteFunctionStrings(fn *topology.FunctionSpec, vars tmpl.Vars) {
	fn.Name = tmpl.Substitute(fn.Name, vars)
	fn.LayerName = tmpl.Substitute(fn.LayerName, vars)
	fn.Description = tmpl.Substitute(fn.Description, vars)
	if fn.Runtime != nil {
		fn.Runtime.Handler = tmpl.Substitute(fn.Runtime.Handler, vars)
		fn.Runtime.URI = tmpl.Substitute(fn.Runtime.URI, vars)
		if fn.Runtime.Environment != nil {
			tmpl.SubstituteMap(fn.Runtime.Environment, vars)
		}
		for i, l := range fn.Runtime.Layers {
			fn.Runtime.Layers[i] = tmpl.Substitute(l, vars)
		}
	}
}
