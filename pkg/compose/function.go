package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tc-functors/tc/pkg/topology"
)

// buildFunction implements spec.md §4.3's Function builder: resolves the
// build URI and assembles the environment in the documented fixed order.
// It sets no tags: Function has no tags field, and buildTags is not
// called here.
func (c *Composer) buildFunction(fspec *topology.FunctionSpec, namespace string) (*Function, error) {
	if fspec.Runtime == nil {
		return nil, fmt.Errorf("function %s has no runtime spec", fspec.Name)
	}
	runtime := *fspec.Runtime
	build := fspec.Build
	if build == nil {
		build = &topology.BuildSpec{Kind: "Code"}
	}

	if runtime.URI == "" {
		switch runtime.PackageType {
		case topology.PackageZip:
			runtime.URI = filepath.Join(fspec.Dir, "lambda.zip")
		case topology.PackageImage:
			codeVersion := c.codeVersion(fspec.Dir)
			runtime.URI = fmt.Sprintf("{{repo}}:%s_%s_%s", namespace, fspec.Name, codeVersion)
		}
	}

	fn := &Function{
		Name:        fspec.Name,
		ActualName:  fspec.FQN,
		FQN:         fspec.FQN,
		Namespace:   namespace,
		Dir:         fspec.Dir,
		Description: fspec.Description,
		Runtime:     &runtime,
		Build:       build,
		LayerName:   fspec.LayerName,
		Test:        fspec.Test,
	}
	if c.Auth != nil {
		fn.ARN = c.Auth.FunctionARN(fspec.FQN)
	}
	for _, t := range fspec.Targets {
		fn.Targets = append(fn.Targets, targetFromRef(t))
	}

	fn.Runtime.Environment = c.buildEnvironment(fspec, namespace, &runtime, build)
	return fn, nil
}

func targetFromRef(t topology.TargetRef) Target {
	switch {
	case t.Event != "":
		return Target{Entity: TargetState, ID: t.Event}
	case t.Mutation != "":
		return Target{Entity: TargetMutation, ID: t.Mutation}
	case t.Function != "":
		return Target{Entity: TargetFunction, ID: t.Function}
	case t.Channel != "":
		return Target{Entity: TargetChannel, ID: t.Channel}
	}
	return Target{}
}

// codeVersion is the SHA-1 of the directory contents, computed by the
// Builder (pkg/build); at compose time we only know whether a git SHA
// override was requested, which resolve/build fill in later. The
// template placeholder is preserved here and bound downstream.
func (c *Composer) codeVersion(dir string) string {
	if c.UseGitSHA {
		return "{{version}}"
	}
	return "{{code_hash}}"
}

// buildEnvironment assembles a function's environment variables in the
// fixed order from spec.md §4.3: language-independent baseline,
// language-specific additions, then user overrides last.
func (c *Composer) buildEnvironment(fspec *topology.FunctionSpec, namespace string, runtime *topology.RuntimeSpec, build *topology.BuildSpec) map[string]string {
	env := map[string]string{}

	env["LAMBDA_STAGE"] = "{{env}}"
	env["Environment"] = "{{env}}"
	env["AWS_ACCOUNT_ID"] = "{{account}}"
	env["SANDBOX"] = "{{sandbox}}"
	env["NAMESPACE"] = namespace
	env["LOG_LEVEL"] = "INFO"
	env["POWERTOOLS_METRICS_NAMESPACE"] = pascalCase(namespace + "_" + fspec.FQN)

	switch runtime.Lang {
	case topology.LangPython39, topology.LangPython310, topology.LangPython311, topology.LangPython312, topology.LangPython313:
		env["PYTHONPATH"] = "/opt/python:/var/task"
		env["LD_LIBRARY_PATH"] = "/opt/lib:/var/task"
		for _, a := range fspec.Assets {
			env["PYTHONPATH"] = env["PYTHONPATH"] + ":" + a
		}
	case topology.LangRuby32:
		env["GEM_PATH"] = "/opt/ruby/gems"
		env["GEM_HOME"] = "/opt/ruby/gems"
		env["RUBYLIB"] = "/opt/ruby/lib:/var/task"
		if build.Kind != "Inline" && hasGemfile(fspec.Dir) && os.Getenv("NO_RUBY_WRAPPER") == "" {
			env["AWS_LAMBDA_EXEC_WRAPPER"] = "/opt/ruby_wrapper"
		}
	case topology.LangNode20, topology.LangNode22:
		if build.Kind == "Inline" {
			env["NODE_PATH"] = "/opt/node_modules:/var/task/node_modules"
		}
	}

	if runtime.Environment != nil {
		for k, v := range runtime.Environment {
			env[k] = v
		}
	}
	return env
}

func hasGemfile(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "Gemfile"))
	return err == nil
}

// pascalCase upper-cases the first letter of each "_"/"-" segment and
// concatenates them, used for the Powertools metrics namespace.
func pascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// buildTags merges namespace, sandbox, version, git branch, deployer,
// updated-at, tc-version, and any tags.json contents (spec.md §4.3).
func (c *Composer) buildTags(namespace, version string, extra map[string]string) map[string]string {
	tags := map[string]string{
		"namespace":   namespace,
		"sandbox":     "{{sandbox}}",
		"version":     version,
		"deployer":    "tc",
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
		"tc_version":  c.Version,
	}
	if branch := os.Getenv("GIT_BRANCH"); branch != "" {
		tags["git_branch"] = branch
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}
