// Command brlapid runs the braille-display API server described in
// SPEC_FULL.md: it authenticates clients against a shared-secret key file,
// arbitrates tty and raw-mode access to a Driver, and routes driver key
// events to whichever client owns the console's foreground tty.
//
// The real hardware driver layer is out of scope; this binary always runs
// against brlapi.StubDriver, a driver that records writes and never
// produces keystrokes on its own. It exists to make the server runnable
// and exercisable, not to talk to real hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	brlapi "github.com/brltty/brlapid"
)

func main() {
	listenFlag := flag.String("listen", brlapi.DefaultListenAddr, "TCP address to accept client connections on")
	keyFlag := flag.String("keyfile", brlapi.DefaultKeyFilePath, "Path to the shared-secret authentication key file")
	bindingsFlag := flag.String("bindings-dir", "", "Home directory whose .brlkeys subdirectory holds <client>-<driverid>.kbd binding files (disabled if empty)")
	metricsFlag := flag.String("metrics-listen", "", "If set, serve Prometheus metrics on this address at /metrics")
	verboseFlag := flag.Bool("verbose", false, "Enable debug-level logging")

	flag.Usage = printUsage
	flag.Parse()

	logger := logrus.New()
	if *verboseFlag {
		logger.SetLevel(logrus.DebugLevel)
	}

	registry := prometheus.NewRegistry()
	metrics := brlapi.NewPromMetrics(registry)

	driver := brlapi.NewStubDriver([2]byte{'S', 'X'}, "stub", 40, 1)

	srv, err := brlapi.NewServer(driver,
		brlapi.WithListenAddr(*listenFlag),
		brlapi.WithKeyFilePath(*keyFlag),
		brlapi.WithBindingsHome(*bindingsFlag),
		brlapi.WithMetrics(metrics),
		brlapi.WithLogger(logger),
	)
	if err != nil {
		logger.WithError(err).Fatal("failed to construct server")
	}

	if *metricsFlag != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsFlag, mux); err != nil {
				logger.WithError(err).Warn("metrics listener stopped")
			}
		}()
		logger.WithField("addr", *metricsFlag).Info("serving metrics")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.WithField("addr", *listenFlag).Info("starting brlapid")
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}

func printUsage() {
	fmt.Println("brlapid - braille display API server")
	fmt.Println("Usage:")
	fmt.Println("  brlapid [-listen addr] [-keyfile path] [-bindings-dir dir] [-metrics-listen addr] [-verbose]")
}
