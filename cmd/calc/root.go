package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/calcstorm/internal/app"
	"github.com/dshills/calcstorm/internal/calculation"
	"github.com/dshills/calcstorm/internal/config"
	"github.com/dshills/calcstorm/internal/engine/history"
	"github.com/dshills/calcstorm/internal/repl"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile    string
	logLevel      string
	historyFormat string
	noColor       bool
}

// overrides returns the settings given explicitly on the command line.
func (f *globalFlags) overrides(cmd *cobra.Command) map[string]any {
	out := make(map[string]any)
	if cmd.Flags().Changed("log-level") {
		out["log_level"] = f.logLevel
	}
	if cmd.Flags().Changed("history-format") {
		out["history_format"] = f.historyFormat
	}
	return out
}

func (f *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(
		config.WithFile(f.configFile),
		config.WithOverrides(f.overrides(cmd)),
	)
}

func (f *globalFlags) openSession(cmd *cobra.Command) (*app.Calculator, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func newRootCmd(stdin *os.File, stdout io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "calc",
		Short: "Interactive calculator with undo/redo history",
		Long: `calc evaluates arithmetic operations at a prompt, keeps a bounded
history with undo and redo, and saves the history to a CSV or SQLite file.

Run without a subcommand to start the interactive prompt. Settings come from
an optional TOML or YAML file (--config or CALCULATOR_CONFIG_FILE) and
CALCULATOR_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, flags, stdin, stdout)
		},
	}
	root.SetOut(stdout)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "path to a TOML or YAML configuration file")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&flags.historyFormat, "history-format", config.DefaultHistoryFormat, "history file format (csv, sqlite)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newEvalCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(),
	)
	return root
}

func runInteractive(cmd *cobra.Command, flags *globalFlags, stdin *os.File, stdout io.Writer) error {
	calc, err := flags.openSession(cmd)
	if err != nil {
		return err
	}
	defer calc.Close()

	reader, out := repl.NewReader(stdin, stdout)
	defer reader.Close()

	r := repl.New(calc, reader, out, repl.WithLogger(calc.Logger()))
	return r.Run(cmd.Context())
}

func newEvalCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <operation> <a> <b>",
		Short: "Evaluate one operation and record it",
		Long: `Evaluate one operation and print the result. The operation is a prompt
command (add, intdiv, absdiff, ...) or an operation name (Addition, ...).
The calculation is added to the saved history when auto_save is enabled.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := resolveOperation(args[0])
			if err != nil {
				return err
			}

			calc, err := flags.openSession(cmd)
			if err != nil {
				return err
			}
			defer calc.Close()

			result, err := calc.Perform(op, args[1], args[2])
			if result != nil {
				cmd.Println(calc.FormatResult(result))
			}
			return err
		},
	}
}

func resolveOperation(word string) (calculation.Operation, error) {
	if op, ok := calculation.LookupCommand(strings.ToLower(word)); ok {
		return op, nil
	}
	return calculation.ParseOperation(word)
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the saved history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := flags.openSession(cmd)
			if err != nil {
				return err
			}
			defer calc.Close()

			if err := calc.LoadHistory(); err != nil {
				return err
			}

			if asJSON {
				data, err := history.NewMemento(calc.History()).MarshalJSON()
				if err != nil {
					return fmt.Errorf("encode history: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}

			entries := calc.ShowHistory()
			if len(entries) == 0 {
				cmd.Println("No calculations in history")
				return nil
			}
			for i, entry := range entries {
				cmd.Printf("%d. %s\n", i+1, entry)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the history as a JSON snapshot")
	cmd.AddCommand(newHistoryImportCmd(flags))
	return cmd
}

func newHistoryImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the saved history with a JSON snapshot",
		Long: `Replace the saved history with a snapshot written by "calc history --json".
Every entry is recomputed; nothing is saved if any entry is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			calc, err := flags.openSession(cmd)
			if err != nil {
				return err
			}
			defer calc.Close()

			if err := calc.ImportSnapshot(data); err != nil {
				return err
			}
			if err := calc.SaveHistory(); err != nil {
				return err
			}
			cmd.Printf("Imported %d calculations\n", len(calc.History()))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("calc %s\n", version)
			cmd.Printf("Commit: %s\n", commit)
			cmd.Printf("Built: %s\n", date)
		},
	}
}
