package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/cashledger/internal/config"
	"github.com/dvloznov/cashledger/internal/logger"
)

func main() {
	if code, handled := usage(os.Args[1:], os.Stdout, os.Stderr); handled {
		os.Exit(code)
	}

	boot := logger.New()

	cfg, err := config.LoadWithDotEnv()
	if err != nil {
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}
	log, err := logger.NewWithLevel(cfg.LogLevel)
	if err != nil {
		boot.Fatal().Err(err).Msg("Invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, log, os.Stdout)
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			return
		case errors.Is(err, errUnknownCommand):
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
			printUsage(os.Stderr)
			os.Exit(1)
		}
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

// usage handles the invocations that only print help, before any
// configuration is read.
func usage(args []string, stdout, stderr io.Writer) (code int, handled bool) {
	if len(args) == 0 {
		printUsage(stderr)
		return 1, true
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0, true
	}
	return 0, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Cash Ledger CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  summary     Group transactions and print totals and counts")
	fmt.Fprintln(w, "  search      Print transactions whose description matches a pattern")
	fmt.Fprintln(w, "  transfers   Print transactions detected as transfer legs")
	fmt.Fprintln(w, "  categorize  Apply a rules file and write the recategorized table as CSV")
	fmt.Fprintln(w, "  export      Write the filtered table as CSV")
	fmt.Fprintln(w, "  help        Show this help message")
	fmt.Fprintln(w, "\nSources: -file a.csv,gs://bucket/b.csv (Mint, Tiller or ledger CSV) or -bq-from/-bq-to.")
	fmt.Fprintln(w, "Run 'cli <command> -h' for more information on a command.")
}
