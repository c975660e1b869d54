// Package build implements the Builder named in spec.md §2's component
// table: it turns a composed Function into a deployable artifact — a
// zip blob (hashed, archived, written next to the handler) or a
// container image (built and pushed via the docker CLI) — and renders
// the transducer's manifest.json. Grounded on
// AdamPippert-Lobstertank's internal/template.Plan/WriteBundle split
// (compute-without-writing vs. write-for-real) and the teacher's
// subprocess-spawn style for shelling out to external tools.
package build

import (
	"archive/zip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/topology"
)

// BuildPlan is what Plan computes without touching the filesystem.
type BuildPlan struct {
	FunctionName string
	PackageType  topology.PackageType
	URI          string
	Layers       []string
	Manifest     *TransducerManifest
}

// Artifact is what Package actually produces.
type Artifact struct {
	FunctionName string
	PackageType  topology.PackageType
	URI          string
	CodeVersion  string
}

// TransducerManifest is rendered to manifest.json next to the
// transducer's handler (spec.md §4.5's Transducer algorithm).
type TransducerManifest struct {
	Targets map[string]compose.TransducerTargets `json:"targets"`
}

// Builder packages functions for deploy. Repo/GitSHA are resolved once
// per orchestrator run, mirroring the teacher's shared immutable
// AuthContext.
type Builder struct {
	Repo   string // {{repo}} substitution target for image builds
	GitSHA string
}

// Plan computes what Package would produce, without doing any I/O
// beyond the directory hash needed to predict the code version
// (used by `tc plan`/`--dry-run`).
func (b *Builder) Plan(fn *compose.Function) (BuildPlan, error) {
	plan := BuildPlan{
		FunctionName: fn.Name,
		PackageType:  fn.Runtime.PackageType,
		Layers:       DiscoverLayers(fn),
	}
	version, err := b.codeVersion(fn)
	if err != nil {
		return plan, err
	}
	plan.URI = b.renderURI(fn, version)
	return plan, nil
}

// Package builds the real artifact: a zip file for package_type=zip, or
// a built-and-pushed image for package_type=image.
func (b *Builder) Package(ctx context.Context, fn *compose.Function) (Artifact, error) {
	version, err := b.codeVersion(fn)
	if err != nil {
		return Artifact{}, err
	}
	uri := b.renderURI(fn, version)

	art := Artifact{FunctionName: fn.Name, PackageType: fn.Runtime.PackageType, URI: uri, CodeVersion: version}

	switch fn.Runtime.PackageType {
	case topology.PackageZip:
		if err := zipDir(fn.Dir, filepath.Join(fn.Dir, "lambda.zip")); err != nil {
			return Artifact{}, fmt.Errorf("zip %s: %w", fn.Dir, err)
		}
	case topology.PackageImage:
		if err := dockerBuildAndPush(ctx, fn.Dir, uri); err != nil {
			return Artifact{}, fmt.Errorf("image build %s: %w", fn.Name, err)
		}
	default:
		return Artifact{}, fmt.Errorf("function %s: unknown package_type %q", fn.Name, fn.Runtime.PackageType)
	}

	fn.Runtime.URI = uri
	return art, nil
}

// DiscoverLayers implements the implicit-layer consolidation rule for
// Ruby zip builds (spec.md §4.2): the final attached-layer list is
// extensions ++ layers ++ [implicit layer, if any], deduplicated.
func DiscoverLayers(fn *compose.Function) []string {
	if fn.Runtime == nil {
		return nil
	}
	return fn.Runtime.ConsolidateLayers(fn.LayerName)
}

// codeVersion computes the SHA-1 of a function's directory contents,
// or returns the short git SHA when a version-images flag is set
// (spec.md §4.3's `code-version` rule). The placeholder left by the
// composer (`{{code_hash}}` / `{{version}}`) tells us which was asked for.
func (b *Builder) codeVersion(fn *compose.Function) (string, error) {
	switch {
	case strings.Contains(fn.Runtime.URI, "{{version}}"):
		if b.GitSHA == "" {
			return "", fmt.Errorf("function %s requests git-sha versioning but no git sha was resolved", fn.Name)
		}
		return b.GitSHA, nil
	case strings.Contains(fn.Runtime.URI, "{{code_hash}}"):
		return hashDir(fn.Dir)
	default:
		return hashDir(fn.Dir)
	}
}

// renderURI substitutes the composer's placeholders ({{repo}}, {{code_hash}},
// {{version}}) with concrete values now that build-time state is known.
func (b *Builder) renderURI(fn *compose.Function, version string) string {
	uri := fn.Runtime.URI
	if fn.Runtime.PackageType != topology.PackageImage {
		return uri
	}
	uri = strings.ReplaceAll(uri, "{{repo}}", b.Repo)
	uri = strings.ReplaceAll(uri, "{{code_hash}}", version)
	uri = strings.ReplaceAll(uri, "{{version}}", version)
	return uri
}

// hashDir computes a deterministic SHA-1 over every regular file's
// relative path and contents under dir, sorted for stability.
func hashDir(dir string) (string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == "lambda.zip" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	h := sha1.New()
	for _, p := range paths {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00", rel)
		f, err := os.Open(p)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12], nil
}

// zipDir archives every regular file under src into a zip at dest,
// skipping any pre-existing lambda.zip to avoid archiving the artifact
// into itself.
func zipDir(src, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == dest {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		fw, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(fw, f)
		return err
	})
}

// dockerBuildAndPush shells out to the docker CLI, mirroring the
// teacher's subprocess-spawn suspension points (spec.md §5).
func dockerBuildAndPush(ctx context.Context, dir, tag string) error {
	build := exec.CommandContext(ctx, "docker", "build", "-t", tag, dir)
	if out, err := build.CombinedOutput(); err != nil {
		return fmt.Errorf("docker build: %w: %s", err, out)
	}
	klog.V(2).Infof("built image %s", tag)

	push := exec.CommandContext(ctx, "docker", "push", tag)
	if out, err := push.CombinedOutput(); err != nil {
		return fmt.Errorf("docker push: %w: %s", err, out)
	}
	klog.V(2).Infof("pushed image %s", tag)
	return nil
}

// RenderManifest builds the transducer's manifest.json contents and
// writes it next to the handler (spec.md §4.5's Transducer algorithm).
func RenderManifest(t *compose.Transducer) (string, error) {
	manifest := TransducerManifest{Targets: t.Targets}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transducer manifest: %w", err)
	}

	dir := t.Function.Dir
	if dir == "" {
		return "", fmt.Errorf("transducer function has no build directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transducer dir %s: %w", dir, err)
	}
	handlerPath := filepath.Join(dir, "transducer.py")
	if err := os.WriteFile(handlerPath, []byte(compose.TransducerHandlerSource()), 0o644); err != nil {
		return "", fmt.Errorf("write transducer handler: %w", err)
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write transducer manifest: %w", err)
	}
	return manifestPath, nil
}
