package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/metalagman/tasks/internal/task"
	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"task": func() { os.Exit(run(os.Args[1:])) },
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "validation", err: fmt.Errorf("%w: title is required", task.ErrValidation), want: exitValidation},
		{name: "usage", err: usageError(errors.New("unknown flag: --nope")), want: exitValidation},
		{name: "not found", err: fmt.Errorf("task abc: %w", task.ErrNotFound), want: exitNotFound},
		{name: "cycle", err: &task.DependencyError{UID: "a", Kind: task.ErrDependencyConflict, Path: []string{"a", "b", "a"}}, want: exitDependency},
		{name: "missing", err: &task.DependencyError{UID: "a", Kind: task.ErrMissingDependency, Missing: []string{"x"}}, want: exitDependency},
		{name: "storage", err: errors.New("disk I/O error"), want: exitStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
