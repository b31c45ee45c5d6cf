package main

import (
	"log"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masp/sum/internal/exetest"
)

var exe *exetest.Exe

func TestMain(m *testing.M) {
	// A fresh HOME and config path keep any installed sum.yaml out of the runs.
	home, err := os.MkdirTemp("", "sumhome")
	if err != nil {
		log.Fatalf("home: %v", err)
	}
	exe, err = exetest.Build("main", exetest.Env(
		"HOME="+home,
		"SUM_CONFIG_PATH="+home,
		"SUM_PARSE_STRICT=",
		"SUM_LOG_LEVEL=",
	))
	if err != nil {
		os.RemoveAll(home)
		log.Fatalf("build error: %v", err)
	}

	rc := m.Run()
	if err := exe.Finish(); err != nil {
		log.Printf("warning: %v", err)
	}
	os.RemoveAll(home)
	os.Exit(rc)
}

func TestSum(t *testing.T) {
	for _, test := range []struct {
		args []string
		want string
	}{
		{[]string{"2", "3"}, "Sum: 5\n"},
		{[]string{"-1", "1"}, "Sum: 0\n"},
		{[]string{"foo", "bar"}, "Sum: 0\n"},
		{[]string{"foo", "5"}, "Sum: 5\n"},
		{[]string{" 40", "2xyz"}, "Sum: 42\n"},
		{[]string{"__complete", "5"}, "Sum: 5\n"},
		{[]string{"__completeNoDesc", "5"}, "Sum: 5\n"},
	} {
		res, err := exe.Run(test.args...)
		require.NoError(t, err)
		assert.Equal(t, exetest.Result{Stdout: test.want}, res, "main %q", test.args)
	}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"5"},
		{"1", "2", "3"},
	} {
		res, err := exe.Run(args...)
		require.NoError(t, err)
		assert.Equal(t, exetest.Result{Stdout: "Usage: main a b\n", ExitCode: 1}, res, "main %q", args)
	}
}

func TestStrict(t *testing.T) {
	cmd := exe.Command("foo", "5")
	cmd.Env = append(cmd.Env, "SUM_PARSE_STRICT=true")
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Equal(t, "Error: invalid operand \"foo\"\n", string(exitErr.Stderr))
	assert.Empty(t, string(out))
}
