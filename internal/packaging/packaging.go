// Package packaging generates the build-time import preload script.
//
// The bundled server wheel carries its own third-party dependencies, so a
// freezing tool's static scanner never sees which stdlib modules they use.
// Instead of scanning the wheel, the preload script imports every standard
// library module so the packager bundles all of it.
package packaging

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"sort"
	"strings"
)

// Excludes lists fragments filtered out of the generated script. A module
// is dropped when any fragment occurs in its dotted name.
var Excludes = []string{
	"site-packages",
	"test",
	"encodings",
	"python-config",
	"__phello__",
	"__init__.py",
	"this",
	"distutils",
	"antigravity",
	"tkinter",
	"idlelib",
	"venv.__init__",
	"__pycache__",
}

const header = `# Code generated by stdlibgen. DO NOT EDIT.
#
# Importing every standard library module forces the packager's static
# dependency scanner to bundle the whole stdlib, so the bundled server
# can rely on any of it at runtime.
`

// ModuleName converts a stdlib-relative file path to a dotted module name.
func ModuleName(rel string) string {
	return strings.ReplaceAll(strings.TrimSuffix(path.Clean(rel), ".py"), "/", ".")
}

// Excluded reports whether any exclude fragment occurs in the module name.
func Excluded(module string, excludes []string) bool {
	for _, ex := range excludes {
		if strings.Contains(module, ex) {
			return true
		}
	}
	return false
}

// Modules walks the stdlib tree and returns the sorted dotted names of the
// modules that survive the exclusion filter.
func Modules(root fs.FS, excludes []string) ([]string, error) {
	var modules []string
	err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Subtrees that can never contribute modules.
			if name := d.Name(); name == "__pycache__" || name == "site-packages" {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".py") {
			return nil
		}
		module := ModuleName(p)
		if Excluded(module, excludes) {
			return nil
		}
		modules = append(modules, module)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk stdlib: %w", err)
	}
	sort.Strings(modules)
	return modules, nil
}

// Render produces the preload script. Each module gets a best-effort
// import: platform-specific modules fail on other platforms and must not
// abort the rest.
func Render(modules []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, module := range modules {
		fmt.Fprintf(&buf, "\ntry:\n    import %s\nexcept:\n    pass\n", module)
	}
	return buf.Bytes()
}

// Generate walks root and writes the rendered script to w, returning the
// number of modules emitted.
func Generate(root fs.FS, excludes []string, w io.Writer) (int, error) {
	modules, err := Modules(root, excludes)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(Render(modules)); err != nil {
		return 0, fmt.Errorf("write script: %w", err)
	}
	return len(modules), nil
}

// GenerateFile renders the script for stdlibDir into outPath.
func GenerateFile(stdlibDir, outPath string) (int, error) {
	modules, err := Modules(os.DirFS(stdlibDir), Excludes)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outPath, Render(modules), 0644); err != nil {
		return 0, fmt.Errorf("write script: %w", err)
	}
	return len(modules), nil
}

// DetectStdlib asks the python3 on PATH where its standard library lives.
func DetectStdlib() (string, error) {
	out, err := exec.Command("python3", "-c", "import sysconfig; print(sysconfig.get_path('stdlib'))").Output()
	if err != nil {
		return "", fmt.Errorf("locate python stdlib: %w", err)
	}
	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", fmt.Errorf("python reported empty stdlib path")
	}
	return dir, nil
}
