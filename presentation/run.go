// Package presentation is the process entry point: argument parsing,
// configuration loading, and wiring every infrastructure component into
// a running Server, mirroring the teacher's presentation package (mode
// dispatch + startup) without its TUI/elevation concerns, which have no
// role in a TCP relay.
package presentation

import (
	"context"
	"flag"
	"fmt"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/mode"
	"github.com/y5a9f2y/proxy/infrastructure/config"
	"github.com/y5a9f2y/proxy/infrastructure/cryptoprim"
	"github.com/y5a9f2y/proxy/infrastructure/dns"
	"github.com/y5a9f2y/proxy/infrastructure/listener"
	"github.com/y5a9f2y/proxy/infrastructure/logging"
	"github.com/y5a9f2y/proxy/infrastructure/pidfile"
	"github.com/y5a9f2y/proxy/infrastructure/server"
	"github.com/y5a9f2y/proxy/infrastructure/signals"
)

// Options are the parsed command-line arguments.
type Options struct {
	ConfigPath   string
	ModeOverride string
}

// ParseArgs reads flags from args (excluding argv[0]). -config defaults
// to proxy.ini in the working directory; a positional mode argument, if
// given, overrides proxy.mode from the INI file.
func ParseArgs(args []string) (Options, error) {
	fs := flag.NewFlagSet("proxy", flag.ContinueOnError)
	configPath := fs.String("config", "proxy.ini", "path to the INI configuration file")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	opts := Options{ConfigPath: *configPath}
	if rest := fs.Args(); len(rest) > 0 {
		opts.ModeOverride = rest[0]
	}
	return opts, nil
}

// Run loads configuration, builds every infrastructure component, and
// blocks serving connections until ctx is cancelled (typically by a
// trapped terminating signal).
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("presentation: load config: %w", err)
	}
	if opts.ModeOverride != "" {
		m, err := mode.Parse(opts.ModeOverride)
		if err != nil {
			return fmt.Errorf("presentation: mode override: %w", err)
		}
		cfg.Mode = m
	}

	logger := logging.NewStdLogger(nil)

	pf, err := pidfile.Write(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("presentation: write pidfile: %w", err)
	}
	defer func() {
		if rerr := pf.Remove(); rerr != nil {
			logger.Printf("presentation: remove pidfile: %v", rerr)
		}
	}()

	var rsaKeys *cryptoprim.RSAKeyPair
	if cfg.Mode == mode.Decryption {
		rsaKeys, err = cryptoprim.GenerateRSAKeyPair()
		if err != nil {
			return fmt.Errorf("presentation: generate rsa keypair: %w", err)
		}
	}

	var resolver application.Resolver = dns.NewResolver(cfg.LocalHost)

	srv := server.New(cfg, logger, rsaKeys, resolver)

	ln, err := listener.Listen(cfg.LocalHost, cfg.LocalPort, cfg.ListenBacklog)
	if err != nil {
		return fmt.Errorf("presentation: listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go signals.Run(runCtx, logger, signals.Handlers{
		OnReload: signals.DefaultReloadHandler(logger, cfg),
		OnDump:   signals.DefaultDumpHandler(logger, cfg),
	}, cancel)

	logger.Printf("presentation: listening on %s:%d in %s mode", cfg.LocalHost, cfg.LocalPort, cfg.Mode)
	return srv.Serve(runCtx, ln)
}
