package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/chat"
	"github.com/strugal/inventory-platform/internal/locale"
	"github.com/strugal/inventory-platform/pkg/logger"
)

type options struct {
	url     string
	lang    string
	timeout time.Duration
	debug   bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Chat with the STRUGAL inventory assistant",
		Long: `Start an interactive session with the STRUGAL assistant.

Replies are streamed as they are generated. Ctrl+C cancels the reply in
progress; Ctrl+C at the prompt or Ctrl+D exits.`,
		Example: `  # Talk to a local API server in French
  $ assistant

  # Spanish, against a remote deployment
  $ assistant --lang es --url https://inventory.example.com/api/chat`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:8080/api/chat", "chat relay endpoint")
	cmd.Flags().StringVar(&opts.lang, "lang", "fr", "assistant language (fr, es)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "maximum duration of one reply")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "log skipped events and failures to stderr")

	return cmd
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	texts := locale.For(locale.Parse(opts.lang))

	log := logger.NewNop()
	if opts.debug {
		l, err := logger.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		log = l
	}
	defer log.Sync()

	consumer := chat.New(opts.url, texts,
		chat.WithHTTPClient(&http.Client{}),
		chat.WithLogger(log.Named("chat")),
	)
	defer consumer.Close()

	r := newRenderer(out, texts)
	defer consumer.Subscribe(r.Render)()
	r.Greet(consumer.Snapshot())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	history := historyPath()
	loadHistory(line, history)
	defer saveHistory(line, history)

	turns := &turnCanceler{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			turns.cancel()
		}
	}()

	for {
		input, err := line.Prompt("› ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		turnCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		turns.set(cancel)
		outcome, err := consumer.Send(turnCtx, input)
		turns.set(nil)
		cancel()

		r.EndTurn(outcome, consumer.Snapshot())
		if err != nil {
			log.Debug("turn failed", zap.String("outcome", string(outcome)), zap.Error(err))
		}
	}
}

// turnCanceler holds the cancel func of the turn in flight.
type turnCanceler struct {
	mu sync.Mutex
	fn context.CancelFunc
}

func (t *turnCanceler) set(fn context.CancelFunc) {
	t.mu.Lock()
	t.fn = fn
	t.mu.Unlock()
}

func (t *turnCanceler) cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fn != nil {
		t.fn()
	}
}

func historyPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "strugal", "assistant_history")
}

func loadHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
