package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jortega/cuaderno/internal/models"
	"github.com/jortega/cuaderno/internal/roster"
)

func addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME AMOUNT",
		Short: "Add a student to the roster",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			if err := a.model.Add(args[0], amount); err != nil {
				return err
			}
			fmt.Printf("added %s at %.2f/month\n", args[0], amount)
			return nil
		}),
	}
}

func editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit NAME AMOUNT",
		Short: "Change a student's monthly amount",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return a.model.Edit(args[0], amount)
		}),
	}
}

func rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a student from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			a.model.Remove(args[0])
			return nil
		}),
	}
}

func toggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle NAME",
		Short: "Toggle a student between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			a.model.ToggleActive(args[0])
			return nil
		}),
	}
}

func attendanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attendance NAME MODE [DAYS]",
		Short: "Set a student's attendance mode (full, half or days)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			mode := models.AttendanceMode(args[1])
			days := 0
			if len(args) == 3 {
				d, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid day count %q", args[2])
				}
				days = d
			}
			return a.model.SetAttendance(args[0], mode, days)
		}),
	}
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the roster",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			students := a.model.Students()
			if len(students) == 0 {
				fmt.Println("roster is empty")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAMOUNT\tSTATE\tATTENDANCE")
			for _, s := range students {
				state := "active"
				if !s.Active {
					state = "inactive"
				}
				att := string(s.Attendance)
				if s.Attendance == models.AttendanceDays {
					att = fmt.Sprintf("%d days", s.Days)
				}
				fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", s.Name, s.Amount, state, att)
			}
			return w.Flush()
		}),
	}
}

func totalsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show the monthly total and each payee's cut",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			totals := a.model.Totals()
			fmt.Printf("monthly total: %.2f\n", totals.Total)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, p := range totals.PerPayee {
				fmt.Fprintf(w, "%s\t%.0f%%\t%.2f\n", p.Name, p.Share, p.Amount)
			}
			return w.Flush()
		}),
	}
}

func payeesCommand() *cobra.Command {
	var manual, auto bool
	var preset int

	cmd := &cobra.Command{
		Use:   "payees [NAME[:SHARE]...]",
		Short: "Show or replace the payee list and share settings",
		Long: "Without arguments, prints the current payees. With arguments,\n" +
			"replaces the payee list; each argument is a name with an optional\n" +
			"manual share, e.g. 'Minerva:60'.",
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if len(args) > 0 {
				payees := make([]models.Payee, len(args))
				for i, arg := range args {
					name, share, err := parsePayee(arg)
					if err != nil {
						return err
					}
					payees[i] = models.Payee{Name: name, Share: share}
				}
				if err := a.model.SetPayees(payees); err != nil {
					return err
				}
			}

			if manual || auto || preset >= 0 {
				var update roster.ConfigUpdate
				if manual || auto {
					v := manual
					update.UseManualShares = &v
				}
				if preset >= 0 {
					update.Preset = &preset
				}
				if err := a.model.UpdateConfig(update); err != nil {
					return err
				}
			}

			printConfig(a)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&manual, "manual", false, "use the manual shares stored on each payee")
	cmd.Flags().BoolVar(&auto, "auto", false, "use a preset share distribution")
	cmd.Flags().IntVar(&preset, "preset", -1, "preset row to use in auto mode")
	return cmd
}

func parsePayee(arg string) (string, float64, error) {
	idx := strings.LastIndex(arg, ":")
	if idx < 0 {
		return arg, 0, nil
	}
	share, err := strconv.ParseFloat(arg[idx+1:], 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid share in %q", arg)
	}
	return arg[:idx], share, nil
}

func printConfig(a *app) {
	cfg := a.model.Config()
	mode := "preset"
	if cfg.UseManualShares {
		mode = "manual"
	}
	fmt.Printf("share mode: %s (preset row %d)\n", mode, cfg.Preset)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range cfg.Payees {
		fmt.Fprintf(w, "%s\t%.0f%%\n", p.Name, p.Share)
	}
	w.Flush()
}

func clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every student from the roster",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the roster without --yes")
			}
			a.model.ClearAll()
			fmt.Println("roster cleared")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the roster")
	return cmd
}
