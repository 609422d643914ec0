// Package signals wires the process signal handling spec.md §6 names:
// SIGHUP reloads configuration, SIGUSR1/SIGUSR2 dump the effective
// configuration to the log, and SIGINT/SIGQUIT/SIGTERM trigger immediate
// exit via context cancellation. SIGPIPE is left at its default
// disposition — the teacher's main.go likewise only traps the signals it
// acts on.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/infrastructure/config"
)

// Handlers groups the callbacks Run dispatches to on each trapped signal.
type Handlers struct {
	// OnReload is invoked on SIGHUP. Typically config.Reload plus a diff
	// log line (SPEC_FULL.md §3).
	OnReload func()
	// OnDump is invoked on SIGUSR1 or SIGUSR2.
	OnDump func()
}

// Run blocks, dispatching trapped signals to h until ctx is cancelled or
// a terminating signal (INT/QUIT/TERM) arrives, in which case cancel has
// been called before Run returns.
func Run(ctx context.Context, logger application.Logger, h Handlers, cancel context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			switch sig {
			case syscall.SIGHUP:
				logger.Printf("signals: SIGHUP received, reloading configuration")
				if h.OnReload != nil {
					h.OnReload()
				}
			case syscall.SIGUSR1, syscall.SIGUSR2:
				logger.Printf("signals: %s received, dumping configuration", sig)
				if h.OnDump != nil {
					h.OnDump()
				}
			case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				logger.Printf("signals: %s received, shutting down", sig)
				cancel()
				return
			}
		}
	}
}

// DefaultReloadHandler builds the OnReload callback spec's SIGHUP
// behavior needs: reload, then log which reloadable fields changed
// (SPEC_FULL.md §3's config reload diffing).
func DefaultReloadHandler(logger application.Logger, cfg *config.Config) func() {
	return func() {
		before, after, err := cfg.Reload()
		if err != nil {
			logger.Printf("signals: config reload failed: %v", err)
			return
		}
		if before.StatisticInterval != after.StatisticInterval {
			logger.Printf("signals: statistic_interval %s -> %s", before.StatisticInterval, after.StatisticInterval)
		}
		if before.MaxIdleTime != after.MaxIdleTime {
			logger.Printf("signals: max_idle_time %s -> %s", before.MaxIdleTime, after.MaxIdleTime)
		}
		if before.AuthUsername != after.AuthUsername {
			logger.Printf("signals: auth.username %s -> %s", before.AuthUsername, after.AuthUsername)
		}
		if before.AuthPassword != after.AuthPassword {
			logger.Printf("signals: auth.password changed")
		}
	}
}

// DefaultDumpHandler builds the OnDump callback for SIGUSR1/SIGUSR2.
func DefaultDumpHandler(logger application.Logger, cfg *config.Config) func() {
	return func() {
		for _, line := range cfg.Dump() {
			logger.Printf("config: %s", line)
		}
	}
}
