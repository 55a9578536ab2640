package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"quiztaker/internal/tui"
)

// NewTakeCmd runs a quiz in the terminal, resuming an interrupted one first.
func NewTakeCmd(configPath *string) *cobra.Command {
	var (
		offline bool
		noColor bool
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "take [quiz-id]",
		Short: "Take a quiz in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID := ""
			if len(args) == 1 {
				quizID = args[0]
			}
			return runTake(cmd.Context(), *configPath, quizID, offline, noColor, logFile)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "serve quizzes in-process instead of calling api.base_url")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (the terminal is taken by the quiz)")
	return cmd
}

func runTake(ctx context.Context, configPath, quizID string, offline, noColor bool, logFile string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	log := newLogger(cfg, out, "quiztaker-take")

	scratch, closeScratch, err := newScratchStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeScratch()

	api, closeAPI, err := newQuizAPI(ctx, cfg, offline, log)
	if err != nil {
		return err
	}
	defer closeAPI()

	engine := newEngine(cfg, api, scratch, log, nil)
	model := tui.NewModel(engine, tui.Options{QuizID: quizID, NoColor: noColor})
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}
