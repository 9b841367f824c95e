package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chzyer/readline"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/log"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/config"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/telemetry"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".exit"),
	readline.PcItem(".stats"),
	readline.PcItem("PUT"),
	readline.PcItem("GET"),
	readline.PcItem("DEL"),
	readline.PcItem("SHOW"),
	readline.PcItem("ONLY", clauseItems()...),
	readline.PcItem("BUT", clauseItems()...),
	readline.PcItem("REVERSE"),
	readline.PcItem("RESET"),
	readline.PcItem("KEYS"),
	readline.PcItem("VALUES"),
	readline.PcItem("SCAN"),
	readline.PcItem("COUNT"),
	readline.PcItem("CONTAINS"),
	readline.PcItem("REMOVE"),
	readline.PcItem("RETAIN"),
	readline.PcItem("SAVE"),
	readline.PcItem("LOAD"),
)

func clauseItems() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, c := range []string{"FIRST", "LAST", "FROM", "TO", "INDEX", "RANGE", "KEYS", "BETWEEN", "VALUES"} {
		items = append(items, readline.PcItem(c))
	}
	return items
}

const helpText = `
sparse - filtered, reversible iteration over a sparse long-keyed map.

Usage:
  sparse [options] [envelope_file]  - Start with an optional saved store

Commands:
  .help                   - Show this help message
  .stats                  - Show operation statistics
  .exit                   - Exit the program

  PUT key value           - Store a value under an integer key
  GET key                 - Retrieve a value by key
  DEL key                 - Delete a key
  SHOW                    - Print the whole store

  ONLY clause             - Keep the entries matching clause
  BUT clause              - Drop the entries matching clause
  REVERSE                 - Flip the traversal direction
  RESET                   - Clear filters and direction

  Clauses:
    FIRST n | LAST n      - First or last n entries in traversal order
    FROM i | TO i         - Physical index at least or at most i
    INDEX i...            - Physical indices
    RANGE i j             - Physical indices from i to j inclusive
    KEYS k...             - Keys
    BETWEEN k1 k2         - Keys in [k1, k2)
    VALUES v...           - Values

  KEYS | VALUES | SCAN    - Print the filtered keys, values or entries
  COUNT                   - Count the filtered entries
  CONTAINS v...           - Whether any filtered entry holds one of the values
  REMOVE                  - Delete the filtered entries from the store
  RETAIN                  - Delete every entry the filters reject
  SAVE path               - Write the filtered entries to an envelope file
  LOAD path               - Put the entries of an envelope file into the store
`

// options holds the command line flags
type options struct {
	configPath  string
	logLevel    string
	compression string
	keyKind     string
	input       string
}

func main() {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", err)
		os.Exit(1)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewStandardLogger(log.WithLevel(level))
	log.SetDefaultLogger(logger)

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing telemetry: %s\n", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed: %v", err)
		}
	}()

	s, err := newSession(cfg, os.Stdout, logger, tel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting session: %s\n", err)
		os.Exit(1)
	}
	defer s.close()

	if opts.input != "" {
		if err := s.load(opts.input); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", opts.input, err)
			os.Exit(1)
		}
	}

	runInteractive(s, cfg.Shell)
}

// parseFlags parses command line flags
func parseFlags() options {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "sparse - filtered iteration over sparse maps\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: sparse [options] [envelope_file]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\nFor the list of commands, start sparse and type .help\n")
	}

	configPath := flag.String("config", config.DefaultConfigFileName, "Path of the JSON configuration file")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error or off")
	compression := flag.String("compression", "", "Envelope compression: none, snappy or zstd")
	keyKind := flag.String("key-kind", "", "Store flavor: long or array")

	flag.Parse()

	opts := options{
		configPath:  *configPath,
		logLevel:    *logLevel,
		compression: *compression,
		keyKind:     *keyKind,
	}
	if flag.NArg() > 0 {
		opts.input = flag.Arg(0)
	}
	return opts
}

// loadConfig reads the configuration file when present, then applies the
// environment and the flags on top of it
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.NewDefaultConfig()
	} else if err != nil {
		return nil, err
	}

	cfg.LoadFromEnv()
	cfg.Update(func(c *config.Config) {
		if opts.logLevel != "" {
			c.LogLevel = opts.logLevel
		}
		if opts.compression != "" {
			c.Envelope.Compression = opts.compression
		}
		if opts.keyKind != "" {
			c.Shell.KeyKind = opts.keyKind
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runInteractive starts the interactive CLI mode
func runInteractive(s *session, shell config.ShellConfig) {
	fmt.Println("sparse version 1.0.0")
	fmt.Println("Enter .help for usage hints.")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shell.Prompt,
		HistoryFile:     shell.HistoryFile,
		HistoryLimit:    shell.HistoryLimit,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		rl.SetPrompt(s.prompt(shell.Prompt))

		line, readErr := rl.Readline()
		if readErr != nil {
			if readErr == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if readErr == io.EOF {
				fmt.Println("Goodbye!")
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", readErr)
			continue
		}

		quit, err := s.exec(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			continue
		}
		if quit {
			fmt.Println("Goodbye!")
			return
		}
	}
}
