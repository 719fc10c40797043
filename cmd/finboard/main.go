package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"finboard/internal/app"
	"finboard/internal/cli"
	"finboard/internal/core"
	"finboard/internal/derived"
	"finboard/internal/log"
)

const recentLimit = 10

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rt, err := cli.InitController(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize", log.FieldError, err)
		os.Exit(1)
	}
	defer rt.Close()
	ctrl := rt.Controller

	restored, err := ctrl.Restore(ctx)
	if err != nil {
		logger.Warn("Failed to restore session", log.FieldError, err)
	}
	if len(os.Args) > 1 && os.Args[1] == "logout" {
		if restored {
			ctrl.Logout(ctx)
		}
		fmt.Println("Logged out.")
		return
	}
	if !restored {
		if cfg.Username == "" {
			logger.Error("No saved session; set FINBOARD_USERNAME and FINBOARD_PASSWORD")
			os.Exit(1)
		}
		if err := ctrl.Login(ctx, core.Credentials{Username: cfg.Username, Password: cfg.Password}); err != nil {
			logger.Error("Login failed", log.FieldUsername, cfg.Username, log.FieldError, err)
			os.Exit(1)
		}
	}

	if len(os.Args) > 1 {
		ctrl.SetSearch(os.Args[1])
	}

	render(os.Stdout, ctrl)
}

func render(w io.Writer, ctrl *app.Controller) {
	d := ctrl.Dashboard()
	money := ctrl.FormatMoney

	if user, ok := ctrl.Session().User(); ok {
		fmt.Fprintf(w, "finboard: %s\n\n", user.Username)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", money(d.Totals.Income))
	fmt.Fprintf(tw, "Expenses\t%s\n", money(d.Totals.Expenses))
	fmt.Fprintf(tw, "Net\t%s\n", money(d.Totals.Net))
	if d.TopCategory != nil {
		fmt.Fprintf(tw, "Top category\t%s (%s)\n", d.TopCategory.Name, money(d.TopCategory.Amount))
	}
	if d.Largest != nil {
		fmt.Fprintf(tw, "Largest\t%s (%s)\n", d.Largest.Description, money(d.Largest.Amount))
	}
	fmt.Fprintf(tw, "Average\t%s\n", money(d.AverageMagnitude))
	fmt.Fprintf(tw, "Imported\t%d transactions\n", d.StatementTxnTotal)
	tw.Flush()

	if len(d.Budgets) > 0 {
		fmt.Fprintln(w, "\nBudgets")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, u := range d.Budgets {
			flag := ""
			if u.OverBudget {
				flag = "over"
			}
			fmt.Fprintf(tw, "  %s\t%s / %s\t%.0f%%\t%s\n",
				u.Budget.Category, money(u.Spent), money(u.Budget.Amount), u.Percentage, flag)
		}
		tw.Flush()
	}

	if len(d.Goals) > 0 {
		fmt.Fprintln(w, "\nGoals")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, p := range d.Goals {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Goal.Name, bar(p), fmt.Sprintf("%.0f%%", p.Label))
		}
		tw.Flush()
	}

	renderTransactions(w, d, money)

	if n, ok := ctrl.Notification(); ok {
		fmt.Fprintf(w, "\n[%s] %s\n", n.Kind, n.Message)
	}
}

func renderTransactions(w io.Writer, d derived.Dashboard, money func(float64) string) {
	if len(d.Visible) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTransactions (%d)\n", len(d.Visible))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, t := range d.Visible {
		if i == recentLimit {
			fmt.Fprintf(tw, "  ...\t%d more\n", len(d.Visible)-recentLimit)
			break
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", t.Date, t.Description, t.CategoryName(), money(t.Amount))
	}
	tw.Flush()
}

func bar(p derived.Progress) string {
	const width = 20
	filled := int(p.Bar / 100 * width)
	out := make([]byte, width)
	for i := range out {
		if i < filled {
			out[i] = '#'
		} else {
			out[i] = '.'
		}
	}
	return "[" + string(out) + "]"
}
