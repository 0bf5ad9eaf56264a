package transfer

import (
	"context"
	"fmt"

	"github.com/metalagman/tasks/internal/task"
	"github.com/rs/zerolog/log"
)

// Store is the subset of the task store used by imports.
type Store interface {
	Insert(ctx context.Context, in task.NewTask) (task.Task, error)
}

// Summary reports the outcome of an import.
type Summary struct {
	Imported int      `json:"imported" yaml:"imported"`
	Total    int      `json:"total"    yaml:"total"`
	Tasks    []Record `json:"tasks"    yaml:"tasks"`
	Errors   []string `json:"errors"   yaml:"errors"`
}

// Import inserts every input independently. A failing row is recorded in the
// summary and does not stop the remaining rows. Only a context error aborts.
func Import(ctx context.Context, store Store, inputs []Input) (Summary, error) {
	sum := Summary{Total: len(inputs), Tasks: []Record{}, Errors: []string{}}
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		row := i + 1
		created, err := importOne(ctx, store, in)
		if err != nil {
			log.Debug().Err(err).Int("row", row).Msg("import row skipped")
			sum.Errors = append(sum.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		sum.Imported++
		sum.Tasks = append(sum.Tasks, FromTask(created))
	}
	log.Info().Int("imported", sum.Imported).Int("total", sum.Total).Msg("import finished")
	return sum, nil
}

// importOne stores a single row. Archived rows are inserted archived in the
// same write, so a row is either fully imported or not stored at all.
func importOne(ctx context.Context, store Store, in Input) (task.Task, error) {
	nt, err := in.NewTask()
	if err != nil {
		return task.Task{}, err
	}
	return store.Insert(ctx, nt)
}
