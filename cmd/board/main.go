package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-board/internal/client"
	"github.com/BuzzLyutic/kanban-board/internal/config"
	"github.com/BuzzLyutic/kanban-board/internal/credential"
	"github.com/BuzzLyutic/kanban-board/internal/kanban"
	"github.com/BuzzLyutic/kanban-board/internal/ui/board"
	"github.com/BuzzLyutic/kanban-board/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	project := flag.String("project", cfg.ProjectID, "project id")
	token := flag.String("token", "", "save API token to the keyring and exit")
	logout := flag.Bool("logout", false, "remove saved API token and exit")
	flag.Parse()

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ring, err := credential.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	tokens := credential.NewTokens(ring)

	switch {
	case *token != "":
		if err := tokens.Save(*token); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token saved.")
		return
	case *logout:
		if err := tokens.Forget(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token removed.")
		return
	}

	api := client.New(cfg.APIURL, tokens,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger.Named("client")),
	)
	jobs := worker.NewDispatcher(logger.Named("jobs"), cfg.RequestTimeout)
	store := kanban.NewStore(api, *project, logger.Named("store"), kanban.WithDispatcher(jobs))

	p := tea.NewProgram(board.New(store, cfg.RequestTimeout), tea.WithAltScreen())
	// Фоновые сверки меняют Store вне цикла программы
	store.SetOnChange(func() { go p.Send(board.ChangedMsg{}) })

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running board: %v\n", err)
		os.Exit(1)
	}

	store.SetOnChange(nil)
	store.Close()
	logger.Info("board closed", zap.String("project_id", *project))
}

// newLogger пишет в файл, если он задан: stdout занят интерфейсом.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
