package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/metalagman/tasks/internal/transfer"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			home := filepath.Join(env.WorkDir, "home")
			if err := os.MkdirAll(home, 0o755); err != nil {
				return err
			}
			env.Setenv("HOME", home)
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"uidof": cmdUIDOf,
		},
	})
}

// cmdUIDOf finds a task by title in a JSON task list and stores its uid in an
// env var.
func cmdUIDOf(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("uidof does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: uidof FILE TITLE VAR")
	}

	var records []transfer.Record
	if err := json.Unmarshal([]byte(ts.ReadFile(args[0])), &records); err != nil {
		ts.Fatalf("parse task list: %v", err)
	}
	for _, r := range records {
		if r.Title == args[1] {
			ts.Setenv(args[2], r.UID)
			return
		}
	}
	ts.Fatalf("task with title %q not found", args[1])
}
