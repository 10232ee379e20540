package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/sirocco"
)

// api is the client surface the commands call.
type api interface {
	Timezones(ctx context.Context) (any, error)
	Projects(ctx context.Context, returnIDProject bool) (any, error)
	ForecastInfo(ctx context.Context, p sirocco.ForecastParams) (any, error)
	SelectedForecast(ctx context.Context, p sirocco.RangeParams) (any, error)
	BacktestsInfo(ctx context.Context, p sirocco.RangeParams) (any, error)
	SelectedBacktests(ctx context.Context, p sirocco.BacktestParams) (any, error)
}

type queryFlags struct {
	run       string
	timezone  string
	initDate  string
	endDate   string
	initAhead int
	endAhead  int
}

func newRootCmd(client api) *cobra.Command {
	var raw bool

	root := &cobra.Command{
		Use:           "sirocco",
		Short:         "Query the Sirocco Energy national forecasting API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&raw, "raw", false, "print compact JSON instead of pretty output")

	emit := func(cmd *cobra.Command, payload any, err error) error {
		if err != nil {
			return err
		}
		return writeJSON(cmd, payload, raw)
	}

	root.AddCommand(&cobra.Command{
		Use:   "timezones",
		Short: "List the timezones accepted by the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := client.Timezones(cmd.Context())
			return emit(cmd, payload, err)
		},
	})

	var ids bool
	projects := &cobra.Command{
		Use:   "projects",
		Short: "List the projects available to the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := client.Projects(cmd.Context(), ids)
			return emit(cmd, payload, err)
		},
	}
	projects.Flags().BoolVar(&ids, "ids", false, "print a run id to project name index")
	root.AddCommand(projects)

	var fq queryFlags
	forecast := &cobra.Command{
		Use:   "forecast",
		Short: "Show forecast information for a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := client.ForecastInfo(cmd.Context(), sirocco.ForecastParams{Run: fq.run, Timezone: fq.timezone})
			return emit(cmd, payload, err)
		},
	}
	addRunFlags(forecast, &fq)
	root.AddCommand(forecast)

	var sfq queryFlags
	selectedForecast := &cobra.Command{
		Use:   "selected-forecast",
		Short: "Show the selected forecast of a run within a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := client.SelectedForecast(cmd.Context(), sfq.rangeParams())
			return emit(cmd, payload, err)
		},
	}
	addRunFlags(selectedForecast, &sfq)
	addRangeFlags(selectedForecast, &sfq)
	root.AddCommand(selectedForecast)

	var bq queryFlags
	backtests := &cobra.Command{
		Use:   "backtests",
		Short: "Show backtest information for a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := client.BacktestsInfo(cmd.Context(), bq.rangeParams())
			return emit(cmd, payload, err)
		},
	}
	addRunFlags(backtests, &bq)
	addRangeFlags(backtests, &bq)
	root.AddCommand(backtests)

	var sbq queryFlags
	selectedBacktests := &cobra.Command{
		Use:   "selected-backtests",
		Short: "Show selected backtests of a run, optionally filtered by lead time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := sirocco.BacktestParams{
				Run:      sbq.run,
				Timezone: sbq.timezone,
				InitDate: sbq.initDate,
				EndDate:  sbq.endDate,
			}
			if cmd.Flags().Changed("init-ahead") {
				p.InitAhead = sirocco.Ahead(sbq.initAhead)
			}
			if cmd.Flags().Changed("end-ahead") {
				p.EndAhead = sirocco.Ahead(sbq.endAhead)
			}
			payload, err := client.SelectedBacktests(cmd.Context(), p)
			return emit(cmd, payload, err)
		},
	}
	addRunFlags(selectedBacktests, &sbq)
	addRangeFlags(selectedBacktests, &sbq)
	selectedBacktests.Flags().IntVar(&sbq.initAhead, "init-ahead", 0, "minimum lead time in minutes")
	selectedBacktests.Flags().IntVar(&sbq.endAhead, "end-ahead", 0, "maximum lead time in minutes")
	root.AddCommand(selectedBacktests)

	root.AddCommand(&cobra.Command{
		Use:   "now",
		Short: "Print the current UTC date and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), sirocco.CurrentUTCDateTime())
			return nil
		},
	})

	return root
}

func addRunFlags(cmd *cobra.Command, q *queryFlags) {
	cmd.Flags().StringVar(&q.run, "run", "", "run identifier")
	cmd.Flags().StringVar(&q.timezone, "timezone", sirocco.DefaultTimezone, "timezone of the returned dates")
	_ = cmd.MarkFlagRequired("run")
}

func addRangeFlags(cmd *cobra.Command, q *queryFlags) {
	cmd.Flags().StringVar(&q.initDate, "init", "", `start date, "YYYY-mm-dd HH:MM:SS"`)
	cmd.Flags().StringVar(&q.endDate, "end", "", `end date, "YYYY-mm-dd HH:MM:SS"`)
}

func (q queryFlags) rangeParams() sirocco.RangeParams {
	return sirocco.RangeParams{
		Run:      q.run,
		Timezone: q.timezone,
		InitDate: q.initDate,
		EndDate:  q.endDate,
	}
}

// writeJSON prints payload as indented JSON, or compact with raw.
func writeJSON(cmd *cobra.Command, payload any, raw bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	out := buf.Bytes()
	if !raw {
		out = pretty.Pretty(out)
	}
	_, err := cmd.OutOrStdout().Write(out)
	return err
}
