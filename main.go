package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mlinfer/config"
	mhttp "mlinfer/http"
	"mlinfer/invocation"
	"mlinfer/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "mlinfer",
	Short:        "serve a trained binary classifier",
	Long:         `mlinfer loads the model artifact written by train_model once at startup and answers prediction requests over HTTP and WebSocket.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.Init(cfg.Log.Console, cfg.Log.Dir, cfg.RotateConfig()); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		config.ApplyLogLevel(cfg)
		defer logger.Sync()

		handler, err := invocation.NewDispatcherFromConfig(cfg)
		if err != nil {
			return err
		}
		return serve(cfg, handler)
	},
}

var invokeCmd = &cobra.Command{
	Use:          "invoke [event.json]",
	Short:        "run one invocation and print the response record",
	Long:         `invoke reads a JSON request record from the given file, or from stdin when no file is given, and prints the JSON response record.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		config.ApplyLogLevel(cfg)

		handler, err := invocation.NewDispatcherFromConfig(cfg)
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if len(args) == 1 {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			in = file
		}
		return invoke(cmd.Context(), handler, in, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path of the YAML config file")
	rootCmd.AddCommand(invokeCmd)
}

func serve(cfg *config.Config, handler invocation.Handler) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.Watch(ctx, configPath, config.ApplyLogLevel); err != nil {
		logger.Warnf("watch config %s: %v", configPath, err)
	}

	server := mhttp.NewServer(mhttp.ServerConfig{
		Port:            cfg.HTTP.Port,
		Timeout:         cfg.HTTP.Timeout,
		MaxBodyBytes:    cfg.HTTP.MaxBodyBytes,
		EnableWebSocket: cfg.HTTP.WebSocket,
		EnableMetrics:   cfg.Metrics.Enable,
	}, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Infof("received %s, shutting down", sig)
	}

	if err := server.Stop(); err != nil {
		return err
	}
	logger.Infof("exiting")
	return nil
}

func invoke(ctx context.Context, handler invocation.Handler, in io.Reader, out io.Writer) error {
	var req invocation.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode request record: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(handler.Handle(ctx, req))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
