// Package main provides the entry point for the task CLI.
package main

import (
	"fmt"
	"os"

	"github.com/metalagman/tasks/internal/task"
	_ "go.uber.org/automaxprocs"
)

// Exit codes by error kind.
const (
	exitOK         = 0
	exitStorage    = 1
	exitValidation = 2
	exitNotFound   = 3
	exitDependency = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch task.KindOf(err) {
	case task.KindNone:
		return exitOK
	case task.KindValidation:
		return exitValidation
	case task.KindNotFound:
		return exitNotFound
	case task.KindDependencyConflict, task.KindMissingDependency:
		return exitDependency
	default:
		return exitStorage
	}
}
