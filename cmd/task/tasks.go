package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/metalagman/tasks/internal/task"
	"github.com/metalagman/tasks/internal/transfer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type taskFlags struct {
	description string
	priority    string
	due         string
	tags        []string
	project     string
	assignee    string
	dependsOn   []string
	status      string
	title       string
}

func (f *taskFlags) register(fs *pflag.FlagSet, withTitle bool) {
	if withTitle {
		fs.StringVar(&f.title, "title", "", "task title")
	}
	fs.StringVarP(&f.description, "description", "d", "", "markdown description")
	fs.StringVarP(&f.priority, "priority", "p", "", "low|medium|high")
	fs.StringVar(&f.due, "due", "", "due date (YYYY-MM-DD); empty clears it on edit")
	fs.StringSliceVarP(&f.tags, "tags", "t", nil, "comma separated tags")
	fs.StringVar(&f.project, "project", "", "project name")
	fs.StringVar(&f.assignee, "assignee", "", "assignee name")
	fs.StringSliceVar(&f.dependsOn, "depends-on", nil, "uids this task depends on")
	fs.StringVarP(&f.status, "status", "s", "", "todo|in_progress|done")
}

func addCmd(a *app) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := transfer.Input{
				Title:       strings.Join(args, " "),
				Description: f.description,
				Priority:    f.priority,
				DueDate:     f.due,
				Tags:        f.tags,
				Project:     f.project,
				Assignee:    f.assignee,
				DependsOn:   f.dependsOn,
				Status:      f.status,
			}
			nt, err := in.NewTask()
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			created, err := store.Insert(cmd.Context(), nt)
			if err != nil {
				return err
			}
			log.Debug().Str("uid", created.UID).Msg("task added")
			return a.printTask(cmd.OutOrStdout(), created)
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

type queryFlags struct {
	status    string
	priority  string
	project   string
	assignee  string
	tags      []string
	sortBy    string
	sortOrder string
	dueBefore string
	dueAfter  string
	limit     int
	offset    int
}

func (q *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&q.status, "status", "s", "", "filter by status")
	fs.StringVarP(&q.priority, "priority", "p", "", "filter by priority")
	fs.StringVar(&q.project, "project", "", "filter by project")
	fs.StringVar(&q.assignee, "assignee", "", "filter by assignee")
	fs.StringSliceVarP(&q.tags, "tags", "t", nil, "match any of these tags")
	fs.StringVar(&q.sortBy, "sort", "", "title|priority|dueDate|createdAt|updatedAt")
	fs.StringVar(&q.sortOrder, "order", "", "asc|desc")
	fs.StringVar(&q.dueBefore, "due-before", "", "due on or before (YYYY-MM-DD)")
	fs.StringVar(&q.dueAfter, "due-after", "", "due on or after (YYYY-MM-DD)")
	fs.IntVar(&q.limit, "limit", 0, "maximum number of tasks")
	fs.IntVar(&q.offset, "offset", 0, "number of tasks to skip")
}

// query converts the flags through the same parser the HTTP API uses.
func (q *queryFlags) query(fs *pflag.FlagSet) (task.Query, error) {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("status", q.status)
	set("priority", q.priority)
	set("project", q.project)
	set("assignee", q.assignee)
	set("tags", strings.Join(q.tags, ","))
	set("sortBy", q.sortBy)
	set("sortOrder", q.sortOrder)
	set("dueBefore", q.dueBefore)
	set("dueAfter", q.dueAfter)
	if fs.Changed("limit") {
		v.Set("limit", strconv.Itoa(q.limit))
	}
	if fs.Changed("offset") {
		v.Set("offset", strconv.Itoa(q.offset))
	}
	return task.ParseQuery(v)
}

func listCmd(a *app) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := qf.query(cmd.Flags())
			if err != nil {
				return err
			}
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := store.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			newTrigger(a.cfg).Observe(cmd.Context(), all)
			return a.printTasks(cmd.OutOrStdout(), task.Apply(all, q))
		},
	}
	qf.register(cmd.Flags())
	return cmd
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <uid>",
		Short: "Show a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := findTask(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), transfer.FromTask(t))
			}
			dependents, err := store.Dependents(cmd.Context(), t.UID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, err = fmt.Fprint(out, renderDetail(t, dependents, terminalWidth(out)))
			return err
		},
	}
}

func editCmd(a *app) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <uid>",
		Short: "Change fields of a task",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := findTask(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if t, err = f.merge(cmd.Flags(), t); err != nil {
				return err
			}
			updated, err := store.Update(cmd.Context(), t)
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), updated)
		},
	}
	f.register(cmd.Flags(), true)
	return cmd
}

// merge applies the flags that were set on the command line to t.
func (f *taskFlags) merge(fs *pflag.FlagSet, t task.Task) (task.Task, error) {
	var err error
	if fs.Changed("title") {
		if t.Title, err = task.ValidateTitle(f.title); err != nil {
			return t, err
		}
	}
	if fs.Changed("description") {
		t.Description = f.description
	}
	if fs.Changed("priority") {
		if t.Priority, err = task.ParsePriority(f.priority); err != nil {
			return t, err
		}
	}
	if fs.Changed("due") {
		if t.DueDate, err = task.ParseDate(f.due); err != nil {
			return t, err
		}
	}
	if fs.Changed("tags") {
		t.Tags = task.NormalizeTags(f.tags)
	}
	if fs.Changed("project") {
		t.Project = f.project
	}
	if fs.Changed("assignee") {
		t.Assignee = f.assignee
	}
	if fs.Changed("depends-on") {
		t.DependsOn = task.NormalizeDependsOn(f.dependsOn)
	}
	if fs.Changed("status") {
		if t.Status, err = task.ParseStatus(f.status); err != nil {
			return t, err
		}
	}
	return t, nil
}

func doneCmd(a *app) *cobra.Command {
	return uidsCmd(a, "done <uid>...", "Mark tasks as done", "done", func(cmd *cobra.Command, s *task.Store, uid string) error {
		return s.CompleteStatus(cmd.Context(), uid)
	})
}

func deleteCmd(a *app) *cobra.Command {
	cmd := uidsCmd(a, "delete <uid>...", "Archive tasks", "archived", func(cmd *cobra.Command, s *task.Store, uid string) error {
		return s.Archive(cmd.Context(), uid)
	})
	cmd.Aliases = []string{"rm", "archive"}
	return cmd
}

func restoreCmd(a *app) *cobra.Command {
	return uidsCmd(a, "restore <uid>...", "Restore archived tasks", "restored", func(cmd *cobra.Command, s *task.Store, uid string) error {
		return s.Restore(cmd.Context(), uid)
	})
}

// uidsCmd builds a command that applies fn to each uid argument and stops at
// the first failure.
func uidsCmd(a *app, use, short, verb string, fn func(*cobra.Command, *task.Store, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			for _, uid := range args {
				if err := fn(cmd, store, uid); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, uid)
			}
			return nil
		},
	}
}

func clearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Archive every task",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := store.ArchiveAll(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"archived": n})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "archived %d tasks\n", n)
			return err
		},
	}
}

func dependCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "depend <uid> [dependency-uid...]",
		Short: "Replace the dependencies of a task; no dependencies clears them",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			updated, err := store.SetDependencies(cmd.Context(), args[0], task.NormalizeDependsOn(args[1:]))
			if err != nil {
				return err
			}
			return a.printTask(cmd.OutOrStdout(), updated)
		},
	}
}

func readyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "List active tasks whose dependencies are done",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := store.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			return a.printTasks(cmd.OutOrStdout(), task.Ready(all))
		},
	}
}

func nextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Pick the next task to work on",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := store.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			next, reason, err := task.SelectNextReady(task.Ready(all))
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"task": transfer.FromTask(next), "reason": reason})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", next.UID, next.Title, reason)
			return err
		},
	}
}
