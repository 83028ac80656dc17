package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ahmedelhadi17776/streaky/internal/domain/streak"
	"github.com/ahmedelhadi17776/streaky/internal/reconcile"
	"github.com/spf13/cobra"
)

func authCmds(a *app) []*cobra.Command {
	credentials := func(cmd *cobra.Command, args []string) (string, string, error) {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && err != io.EOF {
				return "", "", err
			}
			password = strings.TrimRight(line, "\r\n")
		}
		return args[0], password, nil
	}

	register := &cobra.Command{
		Use:   "register [email]",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			email, password, err := credentials(cmd, args)
			if err != nil {
				return err
			}
			info, err := a.session.Register(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", info.Email)
			return nil
		},
	}

	login := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			email, password, err := credentials(cmd, args)
			if err != nil {
				return err
			}
			info, err := a.session.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", info.Email)
			return nil
		},
	}

	for _, c := range []*cobra.Command{register, login} {
		c.Flags().StringP("password", "p", "", "Password (read from stdin when empty)")
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Log out on every device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: server logout failed:", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	return []*cobra.Command{register, login, logout}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show lists, tasks and streaks for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
				printState(cmd.OutOrStdout(), r.Snapshot())
				return nil
			})
		},
	}
}

func listCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage lists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [title]",
		Short: "Add a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
				_, err := r.AddList(strings.Join(args, " "))
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename [list] [title]",
		Short: "Rename a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
				l, err := resolveList(r.Snapshot(), args[0])
				if err != nil {
					return err
				}
				return r.RenameList(l.ID, strings.Join(args[1:], " "))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm [list]",
		Aliases: []string{"delete"},
		Short:   "Delete a list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
				l, err := resolveList(r.Snapshot(), args[0])
				if err != nil {
					return err
				}
				return r.DeleteList(l.ID)
			})
		},
	})

	return cmd
}

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks in a list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [list] [text]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
				l, err := resolveList(r.Snapshot(), args[0])
				if err != nil {
					return err
				}
				_, err = r.AddTask(l.ID, strings.Join(args[1:], " "))
				return err
			})
		},
	})

	onTask := func(use, short string, fn func(r *reconcile.Reconciler, l streak.List, t streak.Task) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [list] [task]",
			Short: short,
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
					l, err := resolveList(r.Snapshot(), args[0])
					if err != nil {
						return err
					}
					t, err := resolveTask(l, strings.Join(args[1:], " "))
					if err != nil {
						return err
					}
					if err := fn(r, l, t); err != nil {
						return err
					}
					printList(cmd.OutOrStdout(), r.Snapshot(), l.ID)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(onTask("done", "Check a task", func(r *reconcile.Reconciler, l streak.List, t streak.Task) error {
		return r.ToggleTask(l.ID, t.ID, true)
	}))
	cmd.AddCommand(onTask("undo", "Uncheck a task", func(r *reconcile.Reconciler, l streak.List, t streak.Task) error {
		return r.ToggleTask(l.ID, t.ID, false)
	}))
	cmd.AddCommand(onTask("rm", "Delete a task", func(r *reconcile.Reconciler, l streak.List, t streak.Task) error {
		return r.DeleteTask(l.ID, t.ID)
	}))

	return cmd
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay running and roll streaks over at midnight IST",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withReconciler(cmd.Context(), func(r *reconcile.Reconciler) error {
				printState(cmd.OutOrStdout(), r.Snapshot())
				day := r.Snapshot().DayKey
				r.OnChange(func(s *streak.AppState) {
					if err := a.state.SetSnapshot(s); err != nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
					}
					if s.DayKey != day {
						day = s.DayKey
						printState(cmd.OutOrStdout(), s)
					}
				})
				<-sigCtx.Done()
				return nil
			})
		},
	}
}

func printState(w io.Writer, s *streak.AppState) {
	fmt.Fprintf(w, "%s  overall streak %d%s\n", s.DayKey, s.Overall.Streak, doneMark(s.Overall.CompletedOn(s.DayKey)))
	if len(s.Lists) == 0 {
		fmt.Fprintln(w, "  no lists yet, add one with `streaky list add`")
		return
	}
	for _, l := range s.Lists {
		printList(w, s, l.ID)
	}
}

func printList(w io.Writer, s *streak.AppState, id string) {
	l, ok := s.List(id)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %s  streak %d%s\n", l.Title, l.Streak, doneMark(l.CompletedOn(s.DayKey)))
	for _, t := range l.Tasks {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		fmt.Fprintf(w, "    %s %s\n", box, t.Text)
	}
}

func doneMark(done bool) string {
	if done {
		return "  (done today)"
	}
	return ""
}
