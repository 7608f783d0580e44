package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/timelineai/internal/reducer"
	"github.com/user/timelineai/internal/render"
)

func init() {
	askCmd.Flags().StringVar(&askServer, "server", "", "server URL (defaults to client.server_url)")
	rootCmd.AddCommand(askCmd)
}

var askServer string

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Stream a timeline or answer from a running server",
	Long: "Ask a running server for a timeline. With a query argument the answer is printed once;\n" +
		"without one, queries are read from stdin line by line.",
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	url := askServer
	if url == "" {
		url = cfg.Client.ServerURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finished := make(chan reducer.State, 1)
	var lastProgress string
	session := reducer.NewSession(reducer.NewStreamClient(url), func(st reducer.State) {
		if line := render.Progress(st); line != "" && line != lastProgress && st.Loading {
			lastProgress = line
			fmt.Fprintln(os.Stderr, line)
		}
		if st.Connection == reducer.Done || st.Connection == reducer.Errored {
			select {
			case finished <- st:
			default:
			}
		}
	}, reducer.WithDebounce(cfg.Debounce()))
	defer session.Close()

	ask := func(query string) error {
		session.Submit(query)
		select {
		case st := <-finished:
			printState(os.Stdout, st)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if len(args) > 0 {
		query, err := argsQuery(args)
		if err != nil {
			return err
		}
		return ask(query)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if err := ask(query); err != nil {
			return nil
		}
	}
}

// argsQuery joins the command-line words into one query.
func argsQuery(args []string) (string, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return "", errors.New("query is empty")
	}
	return query, nil
}

// printState writes the final result of a stream.
func printState(w io.Writer, st reducer.State) {
	switch {
	case st.Connection == reducer.Errored:
		fmt.Fprintln(w, render.Progress(st))
	case st.Mode == reducer.ModeChat:
		fmt.Fprintln(w, st.ChatText)
	default:
		if st.Topic != "" {
			fmt.Fprintf(w, "Timeline: %s\n", st.Topic)
		}
		fmt.Fprintln(w, render.Cards(st.Events))
	}
}
