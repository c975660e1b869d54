// Package compiler implements the Walker (spec.md §4.2): directory
// discovery, node/leaf classification, spec interning, and the inference
// rules (language, kind, implicit layer, derived role) that turn a
// directory tree into a TopologySpec.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/tc-functors/tc/internal/tmpl"
	"github.com/tc-functors/tc/pkg/specfile"
	"github.com/tc-functors/tc/pkg/topology"
)

// hardExcludes are directories never treated as function/topology
// candidates, regardless of .tcignore contents (spec.md §4.2).
var hardExcludes = map[string]bool{
	".git": true, ".circleci": true, ".venv": true, "node_modules": true,
	"entities": true, "states": true, "topology": true,
}

// conventionalRoots are subdirectories walked in addition to a topology
// dir's immediate children when discovering functions.
var conventionalRoots = []string{"functions", "resolvers", "backend"}

// DirKind classifies a directory for compile dispatch.
type DirKind int

const (
	KindTopologyDir DirKind = iota
	KindStandaloneFunctionDir
	KindSingularFunctionDir
	KindRelativeTopologyDir
	KindPlainDir
)

// ClassifyDir implements spec.md §4.2's five-way directory classification.
func ClassifyDir(dir string) DirKind {
	hasTopology := fileExists(filepath.Join(dir, "topology.yml"))
	hasHandler := HasHandlerFile(dir)
	switch {
	case hasTopology && hasHandler:
		return KindSingularFunctionDir
	case hasTopology:
		return KindTopologyDir
	case hasHandler:
		return KindStandaloneFunctionDir
	case nearestTopologyAncestor(dir, 4) != "":
		return KindRelativeTopologyDir
	default:
		return KindPlainDir
	}
}

// nearestTopologyAncestor walks up from dir, at most maxLevels, looking
// for a topology.yml, returning the directory it was found in or "".
func nearestTopologyAncestor(dir string, maxLevels int) string {
	cur := filepath.Dir(dir) // start from the parent; dir itself was checked already
	for i := 0; i < maxLevels; i++ {
		if fileExists(filepath.Join(cur, "topology.yml")) {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return ""
}

// Options configures a compile run.
type Options struct {
	Vars      tmpl.Vars
	Recursive bool
}

// Compile dispatches on the directory's kind and returns the TopologySpec
// rooted at dir (spec.md §4.2's `compile` operation).
func Compile(dir string, opts Options) (*topology.TopologySpec, error) {
	switch ClassifyDir(dir) {
	case KindSingularFunctionDir:
		return compileSingularFunctionDir(dir, opts)
	case KindStandaloneFunctionDir:
		return compileStandaloneFunctionDir(dir, opts)
	case KindTopologyDir, KindRelativeTopologyDir:
		return compileTopologyDir(dir, opts)
	default:
		return compileTopologyDir(dir, opts)
	}
}

// compileStandaloneFunctionDir implements concrete scenario 1 from
// spec.md §8: a directory with handler.py and no topology.yml compiles to
// a one-function standalone topology.
func compileStandaloneFunctionDir(dir string, opts Options) (*topology.TopologySpec, error) {
	name := filepath.Base(dir)
	spec := &topology.TopologySpec{
		Name: name,
		Kind: topology.KindFunction,
		Dir:  dir,
	}
	fn, err := buildStandaloneFunctionSpec(dir, opts.Vars)
	if err != nil {
		return nil, err
	}
	fn.Namespace = name
	augmentFunction(fn, name)
	spec.Functions = map[string]*topology.FunctionSpec{fn.Name: fn}
	spec.FQN = tmpl.Substitute(topology.FQN(name, name, ""), opts.Vars)
	return spec, nil
}

func buildStandaloneFunctionSpec(dir string, vars tmpl.Vars) (*topology.FunctionSpec, error) {
	fn, err := specfile.LoadFunctionSpec(dir, vars)
	if err != nil {
		return nil, err
	}
	if fn.Runtime == nil {
		lang := InferLang(dir)
		fn.Runtime = &topology.RuntimeSpec{
			Lang:        lang,
			Provider:    topology.ProviderLambda,
			PackageType: topology.PackageZip,
			URI:         filepath.Join(dir, "lambda.zip"),
			Handler:     defaultHandler(lang),
		}
	}
	return fn, nil
}

func defaultHandler(lang topology.Lang) string {
	switch lang {
	case topology.LangPython39, topology.LangPython310, topology.LangPython311, topology.LangPython312, topology.LangPython313:
		return "handler.handler"
	case topology.LangRuby32:
		return "handler.handler"
	case topology.LangNode20, topology.LangNode22:
		return "handler.handler"
	default:
		return "handler.handler"
	}
}

// compileSingularFunctionDir compiles a directory that has both
// topology.yml and a handler marker as a single-function topology.
func compileSingularFunctionDir(dir string, opts Options) (*topology.TopologySpec, error) {
	spec, err := specfile.LoadTopologySpec(dir, opts.Vars)
	if err != nil {
		return nil, err
	}
	fn, err := buildStandaloneFunctionSpec(dir, opts.Vars)
	if err != nil {
		return nil, err
	}
	fn.Namespace = spec.Name
	augmentFunction(fn, spec.Name)
	spec.Functions = map[string]*topology.FunctionSpec{fn.Name: fn}
	finishTopologySpec(spec, opts)
	return spec, nil
}

// compileTopologyDir handles the common case: a directory with
// topology.yml plus zero-or-more nested function/topology directories.
func compileTopologyDir(dir string, opts Options) (*topology.TopologySpec, error) {
	spec, err := specfile.LoadTopologySpec(dir, opts.Vars)
	if err != nil {
		return nil, err
	}

	infraDir := spec.InfraDir
	if infraDir == "" {
		infraDir = dir
	}
	tags, err := specfile.LoadTags(dir)
	if err != nil {
		return nil, err
	}
	spec.Tags = tags

	fnDirs, err := discoverFunctionDirs(dir)
	if err != nil {
		return nil, err
	}
	if len(fnDirs) > 0 {
		spec.Functions = make(map[string]*topology.FunctionSpec, len(fnDirs))
		for _, fd := range fnDirs {
			fn, err := specfile.LoadFunctionSpec(fd, opts.Vars)
			if err != nil {
				return nil, err
			}
			if fn.Runtime == nil {
				fn.Runtime = &topology.RuntimeSpec{
					Lang:        InferLang(fd),
					Provider:    topology.ProviderLambda,
					PackageType: topology.PackageZip,
				}
			}
			if fn.InfraDir == "" {
				fn.InfraDir = infraDir
			}
			infra, err := specfile.LoadInfraSpec(infraFileFor(infraDir, fn.Name))
			if err != nil {
				return nil, err
			}
			fn.Runtime.InfraSpec = infra
			role, err := specfile.LoadRoleSpec(infraDir, fn.Name)
			if err != nil {
				return nil, err
			}
			deriveRole(fn, spec.Name, role)
			fn.Namespace = spec.Name
			augmentFunction(fn, spec.Name)
			deriveImplicitLayer(fn, fd, len(fnDirs) == 1, spec.Name)
			spec.Functions[fn.Name] = fn
		}
	}

	if err := internFunctions(spec, dir, opts.Vars); err != nil {
		return nil, err
	}

	if opts.Recursive {
		children, err := discoverNodes(dir, opts)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			spec.Children = children
		}
	}

	inferKind(spec)
	finishTopologySpec(spec, opts)
	return spec, nil
}

func infraFileFor(infraDir, fnName string) string {
	path := filepath.Join(infraDir, "vars", fnName+".json")
	if fileExists(path) {
		return path
	}
	return ""
}

func finishTopologySpec(spec *topology.TopologySpec, opts Options) {
	spec.FQN = tmpl.Substitute(spec.Name, opts.Vars)
}

// inferKind implements spec.md §4.2's kind-inference rule when `kind` is
// omitted from topology.yml. An unrecognized explicit kind is treated
// permissively as Function, per spec.md §4.2's failure semantics.
func inferKind(spec *topology.TopologySpec) {
	if spec.Kind != "" {
		switch spec.Kind {
		case topology.KindStepFunction, topology.KindFunction, topology.KindEvented, topology.KindGraphql, topology.KindRouted:
			return
		default:
			spec.Kind = topology.KindFunction
			return
		}
	}
	switch {
	case len(spec.StateMachineDef()) > 0:
		spec.Kind = topology.KindStepFunction
	case spec.Mutations != nil:
		spec.Kind = topology.KindGraphql
	case len(spec.Routes) > 0:
		spec.Kind = topology.KindRouted
	case len(spec.Functions) > 0:
		spec.Kind = topology.KindFunction
	default:
		spec.Kind = topology.KindEvented
	}
}

// discoverFunctionDirs enumerates immediate children of dir plus
// conventional roots (functions/, resolvers/, backend/), filtering hard
// excludes and .tcignore globs, and keeping only directories that look
// like function dirs (handler marker present).
func discoverFunctionDirs(dir string) ([]string, error) {
	roots := []string{dir}
	for _, r := range conventionalRoots {
		p := filepath.Join(dir, r)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			roots = append(roots, p)
		}
	}

	ignore, err := loadIgnoreGlobs(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	seen := map[string]bool{}
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", root, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if hardExcludes[e.Name()] || matchesAny(ignore, e.Name()) {
				continue
			}
			if isConventionalRoot(e.Name()) && root == dir {
				continue // descended separately
			}
			full := filepath.Join(root, e.Name())
			if seen[full] {
				continue
			}
			if fileExists(filepath.Join(full, "topology.yml")) {
				continue // nested topology, not a function dir
			}
			if !HasHandlerFile(full) {
				continue
			}
			seen[full] = true
			out = append(out, full)
		}
	}
	sort.Strings(out)
	return out, nil
}

func isConventionalRoot(name string) bool {
	for _, r := range conventionalRoots {
		if r == name {
			return true
		}
	}
	return false
}

func loadIgnoreGlobs(dir string) ([]string, error) {
	path := filepath.Join(dir, ".tcignore")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var globs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		globs = append(globs, line)
	}
	return globs, nil
}

func matchesAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// discoverNodes performs a one-level-deep recursive walk, compiling each
// nested topology dir it finds into a child TopologySpec.
func discoverNodes(root string, opts Options) (map[string]*topology.TopologySpec, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", root, err)
	}
	children := map[string]*topology.TopologySpec{}
	for _, e := range entries {
		if !e.IsDir() || hardExcludes[e.Name()] || isConventionalRoot(e.Name()) {
			continue
		}
		childDir := filepath.Join(root, e.Name())
		if !fileExists(filepath.Join(childDir, "topology.yml")) {
			continue
		}
		childOpts := opts
		childOpts.Recursive = false // one level of leaf recursion per spec.md §4.2
		child, err := Compile(childDir, childOpts)
		if err != nil {
			return nil, err
		}
		children[child.Name] = child
	}
	return children, nil
}

// internFunctions expands `functions:` entries declared directly in
// topology.yml whose `uri` begins with "." as references to a shared
// source directory resolved against root (spec.md §4.2's intern_functions).
func internFunctions(spec *topology.TopologySpec, root string, vars tmpl.Vars) error {
	for name, fn := range spec.Functions {
		if fn.Runtime == nil || !strings.HasPrefix(fn.Runtime.URI, ".") {
			continue
		}
		sharedDir := filepath.Clean(filepath.Join(root, fn.Runtime.URI))
		loaded, err := specfile.LoadFunctionSpec(sharedDir, vars)
		if err != nil {
			return err
		}
		loaded.Name = name
		loaded.Dir = sharedDir
		spec.Functions[name] = loaded
	}
	return nil
}

// augmentFunction computes fqn and, if no explicit build is present,
// derives a BuildSpec from `tasks` (spec.md §4.2's augment_function).
func augmentFunction(fn *topology.FunctionSpec, namespace string) {
	fn.FQN = topology.FQN(namespace, fn.Name, fn.FQN)
	if fn.Build == nil && len(fn.Tasks) > 0 {
		fn.Build = &topology.BuildSpec{Kind: "Code", Cmds: fn.Tasks}
	}
	if fn.Build == nil {
		fn.Build = &topology.BuildSpec{Kind: "Code"}
	}
}

// deriveImplicitLayer implements spec.md §4.2's implicit-layer rule: only
// for zip-packaged, Code-built Ruby 3.2 functions with a Gemfile present.
func deriveImplicitLayer(fn *topology.FunctionSpec, dir string, singular bool, namespace string) {
	if fn.Runtime == nil || fn.Runtime.PackageType != topology.PackageZip {
		return
	}
	if fn.Build == nil || fn.Build.Kind != "Code" {
		return
	}
	if fn.Runtime.Lang != topology.LangRuby32 {
		return
	}
	if !fileExists(filepath.Join(dir, "Gemfile")) {
		return
	}
	if fn.LayerName != "" {
		return
	}
	if singular {
		fn.LayerName = kebab(namespace + "-" + fn.Name)
	} else {
		fn.LayerName = kebab(fn.FQN)
	}
}

func kebab(s string) string {
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(s)
}

// deriveRole implements spec.md §4.2's role-derivation rule: a role
// already set on fn wins; otherwise an explicit roles/<fn>.json is used,
// with an empty name, policy name or kind filled in via topology.RoleName,
// topology.PolicyName and RoleFunction; otherwise fall back to the shared
// base role.
func deriveRole(fn *topology.FunctionSpec, namespace string, explicit *topology.RoleSpec) {
	if fn.Role != nil {
		return
	}
	if explicit != nil {
		if explicit.Name == "" {
			explicit.Name = topology.RoleName(namespace, fn.Name)
		}
		if explicit.PolicyName == "" {
			explicit.PolicyName = topology.PolicyName(namespace, fn.Name)
		}
		if explicit.Kind == "" {
			explicit.Kind = topology.RoleFunction
		}
		fn.Role = explicit
		return
	}
	fn.Role = &topology.RoleSpec{
		Kind: topology.RoleBase,
		Name: "tc-base-lambda-role",
	}
	klog.V(4).Infof("function %s has no role file, using shared base role", fn.Name)
}
