package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/chepyr/tareas/internal/models"
	"github.com/chepyr/tareas/internal/tasklist"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// withTasks loads the list into a fresh controller and hands it to fn. The
// controller lives as long as the command.
func (a *app) withTasks(ctx context.Context, fn func(c *tasklist.Controller) error) error {
	c := tasklist.New(ctx, a.client, tasklist.WithLogger(a.logger))
	defer c.Close()
	if err := c.Reload(ctx); err != nil {
		return a.explain(err)
	}
	return a.explain(fn(c))
}

func lookup(c *tasklist.Controller, id string) (models.Task, error) {
	task, ok := c.Find(id)
	if !ok {
		return models.Task{}, fmt.Errorf("no task with id %q", id)
	}
	return task, nil
}

func newListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:         "list",
		Aliases:     []string{"ls"},
		Short:       "List your tasks, newest first",
		Args:        cobra.NoArgs,
		Annotations: homeRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTasks(cmd.Context(), func(c *tasklist.Controller) error {
				tasks := c.Tasks()
				switch format {
				case "json":
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(tasks)
				case "yaml":
					data, err := yaml.Marshal(tasks)
					if err != nil {
						return err
					}
					_, err = a.out.Write(data)
					return err
				case "table", "":
					pending, completed := c.Counts()
					return printTable(a, tasks, pending, completed)
				default:
					return fmt.Errorf("unknown format %q (table, json, yaml)", format)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format: table, json or yaml")
	return cmd
}

func printTable(a *app, tasks []models.Task, pending, completed int) error {
	if len(tasks) == 0 {
		a.status("no tasks yet, add one with \"tareas create\"")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tDESCRIPTION\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status.Label(), t.Title, truncate(t.Description, 40),
			t.CreatedAt.Time().Local().Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.status("%d pending, %d completed", pending, completed)
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func newCreateCmd(a *app) *cobra.Command {
	var title, description string
	var completed bool
	cmd := &cobra.Command{
		Use:         "create",
		Aliases:     []string{"add"},
		Short:       "Create a task",
		Args:        cobra.NoArgs,
		Annotations: homeRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.StatusPending
			if completed {
				status = models.StatusCompleted
			}
			return a.withTasks(cmd.Context(), func(c *tasklist.Controller) error {
				if err := c.Create(cmd.Context(), title, description, status); err != nil {
					return err
				}
				a.status("task created")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title (3-100 characters)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description (5-500 characters)")
	cmd.Flags().BoolVar(&completed, "completed", false, "create the task already completed")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, description, status string
	cmd := &cobra.Command{
		Use:         "edit <id>",
		Short:       "Change a task's title, description or status",
		Args:        cobra.ExactArgs(1),
		Annotations: homeRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("status") {
				return errors.New("nothing to change, pass --title, --description or --status")
			}
			return a.withTasks(cmd.Context(), func(c *tasklist.Controller) error {
				task, err := lookup(c, args[0])
				if err != nil {
					return err
				}
				in := task.Input()
				if flags.Changed("title") {
					in.Title = title
				}
				if flags.Changed("description") {
					in.Description = description
				}
				if flags.Changed("status") {
					s, ok := models.ParseStatus(status)
					if !ok {
						return fmt.Errorf("unknown status %q (P or C)", status)
					}
					in.Status = s
				}
				if err := c.Update(cmd.Context(), task.ID, in.Title, in.Description, in.Status); err != nil {
					return err
				}
				a.status("task updated")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status: P (pending) or C (completed)")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "toggle <id>",
		Short:       "Mark a task completed, or pending again",
		Args:        cobra.ExactArgs(1),
		Annotations: homeRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTasks(cmd.Context(), func(c *tasklist.Controller) error {
				if _, err := lookup(c, args[0]); err != nil {
					return err
				}
				status, err := c.ToggleStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.status("task marked %s", status.Label())
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:         "delete <id>",
		Aliases:     []string{"rm"},
		Short:       "Delete a task",
		Args:        cobra.ExactArgs(1),
		Annotations: homeRoute(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTasks(cmd.Context(), func(c *tasklist.Controller) error {
				task, err := lookup(c, args[0])
				if err != nil {
					return err
				}
				if !yes && !a.confirm(fmt.Sprintf("Delete task %q?", task.Title)) {
					a.status("delete cancelled")
					return nil
				}
				if err := c.Delete(cmd.Context(), task.ID); err != nil {
					return err
				}
				a.status("task deleted")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}
