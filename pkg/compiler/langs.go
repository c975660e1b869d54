package compiler

import (
	"os"
	"path/filepath"

	"github.com/tc-functors/tc/pkg/topology"
)

// markerFile, lang pairs checked in order; the first marker present in a
// directory wins (spec.md §4.2's language-inference rule).
var langMarkers = []struct {
	file string
	lang topology.Lang
}{
	{"Cargo.toml", topology.LangRust},
	{"handler.py", topology.LangPython310},
	{"pyproject.toml", topology.LangPython310},
	{"handler.js", topology.LangNode22},
	{"package.json", topology.LangNode22},
	{"Gemfile", topology.LangRuby32},
	{"handler.rb", topology.LangRuby32},
	{"deps.edn", topology.LangJava21},
}

// InferLang returns the language inferred from marker files present in
// dir, defaulting to python3.10 when none match.
func InferLang(dir string) topology.Lang {
	for _, m := range langMarkers {
		if fileExists(filepath.Join(dir, m.file)) {
			return m.lang
		}
	}
	return topology.LangPython310
}

// handlerMarkers are the recognized handler files that make a directory a
// "standalone function dir" candidate (spec.md §4.2).
var handlerMarkers = []string{
	"handler.py", "handler.rb", "handler.js", "handler.janet", "handler.clj",
	"main.go", "main.janet", "Cargo.toml",
}

// HasHandlerFile reports whether dir contains a recognized handler marker.
func HasHandlerFile(dir string) bool {
	for _, m := range handlerMarkers {
		if fileExists(filepath.Join(dir, m)) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
