// Package exetest builds a main package into an instrumented executable and
// runs it from end-to-end tests, collecting the executable's code coverage.
//
// Build is meant to be called from TestMain of the package under test:
//
//	func TestMain(m *testing.M) {
//		exe, err := exetest.Build("main")
//		...
//		rc := m.Run()
//		exe.Finish()
//		os.Exit(rc)
//	}
package exetest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("exetest")

func init() {
	logging.SetLevel(logging.WARNING, "exetest")
}

// ErrNoCoverage is returned by Finish when the test binary was run without
// -test.coverprofile or -test.gocoverdir.
var ErrNoCoverage = errors.New("-test.coverprofile and -test.gocoverdir not set, not writing coverage data")

// Exe is an executable built with coverage instrumentation.
//
// After all runs have finished, Finish must be called for the coverage data
// to be written.
type Exe struct {
	Path        string // full path to the built executable
	CoverageDir string // GOCOVERDIR of every run

	binDir   string   // temporary dir holding the executable and coverage
	buildPkg string   // package to build, defaults to the current directory
	env      []string // extra environment of every run
}

// Result is the outcome of one run of the executable.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

type Option func(e *Exe)

// Env adds key=value pairs to the environment of every run.
func Env(kv ...string) Option {
	return func(e *Exe) {
		e.env = append(e.env, kv...)
	}
}

// Package builds pkg instead of the current directory. pkg must be a main
// package.
func Package(pkg string) Option {
	return func(e *Exe) {
		e.buildPkg = pkg
	}
}

// Build runs go build -cover and places the executable, named exeName, in a
// temporary directory.
func Build(exeName string, opts ...Option) (*Exe, error) {
	gotool, err := goTool()
	if err != nil {
		return nil, err
	}
	var exe Exe
	for _, option := range opts {
		option(&exe)
	}

	exe.binDir, err = os.MkdirTemp("", "exetest")
	if err != nil {
		return nil, err
	}
	exe.CoverageDir = filepath.Join(exe.binDir, ".coverage")
	if err := os.MkdirAll(exe.CoverageDir, 0700); err != nil {
		os.RemoveAll(exe.binDir)
		return nil, err
	}
	log.Debugf("GOCOVERDIR: %s", exe.CoverageDir)

	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	exe.Path = filepath.Join(exe.binDir, exeName)

	args := []string{"build", "-cover", "-o", exe.Path}
	if exe.buildPkg != "" {
		args = append(args, exe.buildPkg)
	}
	build := exec.Command(gotool, args...)
	log.Debugf("build: %s", strings.Join(build.Args, " "))
	if out, err := build.CombinedOutput(); err != nil {
		os.RemoveAll(exe.binDir)
		return nil, fmt.Errorf("go build: %s", out)
	}
	return &exe, nil
}

// Command returns a Cmd that runs the executable with args, writing its
// coverage to CoverageDir.
func (e *Exe) Command(args ...string) *exec.Cmd {
	cmd := exec.Command(e.Path, args...)
	cmd.Env = append(os.Environ(), e.env...)
	cmd.Env = append(cmd.Env, "GOCOVERDIR="+e.CoverageDir)
	return cmd
}

// Run runs the executable to completion. A non-zero exit status is reported
// in the Result, not as an error.
func (e *Exe) Run(args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.Command(args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		err = nil
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", e.Path, err)
	}
	return res, nil
}

// Finish appends the coverage of all runs to -test.coverprofile (converted
// with go tool covdata textfmt) and copies the raw coverage files to
// -test.gocoverdir, as given to the test binary. The temporary directory is
// removed.
func (e *Exe) Finish() error {
	defer os.RemoveAll(e.binDir)
	log.Debugf("go test args: %s", strings.Join(os.Args, " "))

	coverprofile := findArg(os.Args, "test.coverprofile")
	if coverprofile != "" {
		if err := mergeGoCover(e.CoverageDir, filepath.Join(e.binDir, "exe.cover"), coverprofile); err != nil {
			return err
		}
	}

	gocoverdir := findArg(os.Args, "test.gocoverdir")
	if gocoverdir == "" {
		gocoverdir = os.Getenv("GOCOVERDIR")
	}
	if gocoverdir != "" {
		log.Debugf("copying coverage from %s to %s", e.CoverageDir, gocoverdir)
		if err := os.MkdirAll(gocoverdir, 0755); err != nil {
			return fmt.Errorf("mkdir GOCOVERDIR: %w", err)
		}
		if err := copyAll(e.CoverageDir, gocoverdir); err != nil {
			return fmt.Errorf("copying cov files to %s: %w", gocoverdir, err)
		}
	}

	if coverprofile == "" && gocoverdir == "" {
		return ErrNoCoverage
	}
	return nil
}

// mergeGoCover converts the coverage files in from to a text profile at tmp
// and appends its blocks to the profile at dst.
func mergeGoCover(from, tmp, dst string) error {
	gotool, err := goTool()
	if err != nil {
		return err
	}
	covdata := exec.Command(gotool, "tool", "covdata", "textfmt", "-i", from, "-o", tmp)
	log.Debugf("%s", strings.Join(covdata.Args, " "))
	if out, err := covdata.CombinedOutput(); err != nil {
		return fmt.Errorf("go tool covdata: %s", out)
	}
	return appendProfile(dst, tmp)
}

// appendProfile appends the blocks of the text profile src to dst. The mode
// line of src is dropped when dst already has one.
func appendProfile(dst, src string) error {
	blocks, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	existing, err := os.ReadFile(dst)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(existing) > 0 {
		if strings.HasPrefix(string(blocks), "mode:") {
			if _, rest, ok := strings.Cut(string(blocks), "\n"); ok {
				blocks = []byte(rest)
			} else {
				blocks = nil
			}
		}
		if existing[len(existing)-1] != '\n' {
			blocks = append([]byte{'\n'}, blocks...)
		}
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(blocks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// findArg returns the value of -key=value in args.
func findArg(args []string, key string) string {
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		if name == "-"+key || name == "--"+key {
			return value
		}
	}
	return ""
}

// copyAll copies the regular files of src into dst.
func copyAll(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		log.Debugf("found %s", entry.Name())
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// goTool reports the path to the Go tool.
func goTool() (string, error) {
	var exeSuffix string
	if runtime.GOOS == "windows" {
		exeSuffix = ".exe"
	}
	goBin, err := exec.LookPath("go" + exeSuffix)
	if err != nil {
		return "", errors.New("cannot find go tool: " + err.Error())
	}
	return goBin, nil
}
