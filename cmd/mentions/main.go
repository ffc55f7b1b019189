// Command mentions runs the book mention extractor over text from a file or
// stdin and prints the result as JSON.
//
// Usage:
//
//	mentions parse reply.txt
//	cat reply.txt | mentions parse --resolve
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readmind/internal/book"
	"readmind/internal/config"
	"readmind/internal/mention"
	"readmind/internal/platform/googlebooks"
	"readmind/internal/platform/logger"
	"readmind/internal/recommend"
)

// maxInputBytes caps what parse reads from a file or stdin.
const maxInputBytes = 1 << 20

type parseOptions struct {
	resolve  bool
	apiKey   string
	baseURL  string
	timeout  time.Duration
	compact  bool
	logLevel string
}

func main() {
	config.LoadEnvFiles()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mentions",
		Short:        "Find book mentions in assistant replies",
		SilenceUsage: true,
	}
	root.AddCommand(newParseCmd())
	return root
}

func newParseCmd() *cobra.Command {
	opts := parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract mentions from a file, or stdin when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.resolve, "resolve", false, "look every mention up in Google Books")
	f.StringVar(&opts.apiKey, "api-key", os.Getenv("BOOKS_API_KEY"), "Google Books API key")
	f.StringVar(&opts.baseURL, "books-url", googlebooks.DefaultBaseURL, "Google Books API base URL")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall lookup timeout")
	f.BoolVar(&opts.compact, "compact", false, "print JSON on a single line")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics on stderr")
	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts parseOptions) error {
	log, err := logger.New("production", opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	extractor := mention.NewExtractor(log.Named("mention"))
	mentions := extractor.Extract(text)

	var out any = mentions
	if opts.resolve {
		items, err := resolve(cmd.Context(), log, opts, mentions)
		if err != nil {
			return err
		}
		out = items
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func readInput(stdin io.Reader, args []string) (string, error) {
	r := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func resolve(ctx context.Context, log *zap.Logger, opts parseOptions, mentions []mention.Mention) ([]recommend.Item, error) {
	if opts.apiKey == "" {
		return nil, googlebooks.ErrNotConfigured
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	catalog := googlebooks.NewClient(opts.apiKey,
		googlebooks.WithBaseURL(opts.baseURL),
		googlebooks.WithLogger(log.Named("googlebooks")),
	)
	resolver := recommend.NewResolver(nil, book.NewService(catalog), nil, log.Named("recommend"))
	return resolver.ResolveMentions(ctx, mentions)
}
