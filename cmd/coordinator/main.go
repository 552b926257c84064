// Command coordinator serves the remote authority API the refrigeration unit
// syncs with, plus the operator endpoints and a live state stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/fridge-controller/internal/coordinator"
	"github.com/sweeney/fridge-controller/internal/logger"
)

// options is the coordinator configuration.
type options struct {
	Addr     string `mapstructure:"addr"`
	LogLevel string `mapstructure:"log_level"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// @title        Fridge Coordinator API
// @version      1.0
// @description  Remote authority for the refrigeration unit.
// @BasePath     /
// @securityDefinitions.basic  BasicAuth
func main() {
	opts, err := loadOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(opts.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(opts, log); err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func loadOptions(args []string) (options, error) {
	v := viper.New()
	v.SetDefault("addr", ":5050")
	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("username", "")
	v.SetDefault("password", "")

	fs := pflag.NewFlagSet("coordinator", pflag.ContinueOnError)
	fs.String("addr", "", "HTTP listen address")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	for flag, key := range map[string]string{"addr": "addr", "log-level": "log_level"} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return options{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix("COORDINATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return options{}, fmt.Errorf("decode config: %w", err)
	}
	if opts.Addr == "" {
		return options{}, errors.New("addr is required")
	}
	return opts, nil
}

func run(opts options, log *logger.Logger) error {
	store := coordinator.NewStore(coordinator.DefaultSetpoints(), time.Now)
	handler := coordinator.NewHandler(store, log.Named("api"), opts.Username, opts.Password)

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler.InitRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("coordinator listening", "addr", opts.Addr, "auth", opts.Username != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case s := <-sigCh:
		log.Infow("received signal, shutting down", "signal", s.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
