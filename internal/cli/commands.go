package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/todo"
)

func addCmd(opts *options) *cobra.Command {
	var priority, category string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the top of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := todo.ParsePriority(priority)
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(store *todo.Store) error {
				t, ok := store.Add(strings.Join(args, " "), p, category)
				if !ok {
					return fmt.Errorf("title cannot be empty")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s %q\n", t.ID, t.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(todo.PriorityMedium), "low, medium or high")
	cmd.Flags().StringVarP(&category, "category", "c", "", "optional label, e.g. "+strings.Join(todo.Categories, ", "))
	return cmd
}

func listCmd(opts *options) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(store *todo.Store) error {
				if filter != "" {
					f, err := todo.ParseFilter(filter)
					if err != nil {
						return err
					}
					store.SetFilter(f)
				}
				tasks := store.Visible()
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), tasks)
				}
				writeTasks(cmd.OutOrStdout(), tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "all, pending or completed (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	return cmd
}

func toggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store *todo.Store) error {
				t, err := store.Resolve(args[0])
				if err != nil {
					return err
				}
				store.Toggle(t.ID)
				verb := "completed"
				if t.Completed {
					verb = "reopened"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", verb, t.Title)
				return nil
			})
		},
	}
}

func deleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store *todo.Store) error {
				t, err := store.Resolve(args[0])
				if err != nil {
					return err
				}
				store.Delete(t.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", t.Title)
				return nil
			})
		},
	}
}

func priorityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <low|medium|high>",
		Short: "Change the priority of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := todo.ParsePriority(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(store *todo.Store) error {
				t, err := store.Resolve(args[0])
				if err != nil {
					return err
				}
				store.UpdatePriority(t.ID, p)
				fmt.Fprintf(cmd.OutOrStdout(), "%q is now %s\n", t.Title, p)
				return nil
			})
		},
	}
}

func clearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(store *todo.Store) error {
				n := store.ClearCompleted()
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d completed task(s)\n", n)
				return nil
			})
		},
	}
}

func statsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(store *todo.Store) error {
				stats := store.Stats()
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				all := store.All()
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "total      %d\n", stats.Total)
				fmt.Fprintf(w, "completed  %d\n", stats.Completed)
				fmt.Fprintf(w, "pending    %d\n", stats.Pending)
				fmt.Fprintf(w, "done       %d%%\n", stats.CompletionRate)

				byPriority := todo.CountByPriority(all)
				fmt.Fprintf(w, "pending by priority: high %d, medium %d, low %d\n",
					byPriority[todo.PriorityHigh], byPriority[todo.PriorityMedium], byPriority[todo.PriorityLow])

				byCategory := todo.CountByCategory(all)
				names := make([]string, 0, len(byCategory))
				for name := range byCategory {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Fprintln(w, "by category:")
				for _, name := range names {
					label := name
					if label == "" {
						label = "(none)"
					}
					fmt.Fprintf(w, "  %-10s %d\n", label, byCategory[name])
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	return cmd
}

func writeTasks(w io.Writer, tasks []todo.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s %-6s %s", check, t.ID, t.Priority, t.Title)
		if t.Category != "" {
			line += " #" + t.Category
		}
		line += "  " + time.UnixMilli(t.CreatedAt).Format("2006-01-02 15:04")
		fmt.Fprintln(w, line)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
