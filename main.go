package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitchart/internal/config"
	"github.com/sadopc/habitchart/internal/logging"
	"github.com/sadopc/habitchart/internal/store"
	"github.com/sadopc/habitchart/internal/tui"
)

var (
	configPath string
	verbose    bool

	cfg     config.Config
	cfgFile string // resolved config path
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "habitchart [file]",
	Short: "Chart blood pressure readings from a habit tracker export",
	Long: `habitchart reads a habit tracker CSV export (Date, Habit, Value, Memo),
pulls systolic/diastolic readings out of the blood pressure habit's memos and
marks the days on which every habit was completed.

Run without a subcommand to open the interactive viewer.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
		}
		cfgFile = path
		var err error
		cfg, err = config.Load(path, ".env")
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log, verbose)
		if err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("path", path), zap.String("database", cfg.DatabasePath))
		return nil
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/habitchart/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	s, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	var initial string
	if len(args) == 1 {
		initial = args[0]
	}

	app := tui.NewApp(s, cfg, logger, initial)
	p := tea.NewProgram(app, tea.WithAltScreen())

	final, err := p.Run()
	if m, ok := final.(tui.App); ok {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
