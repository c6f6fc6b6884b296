package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/miqaat-rms-api/pkg/client"
	"github.com/noah-isme/miqaat-rms-api/pkg/config"
	"github.com/noah-isme/miqaat-rms-api/pkg/logger"
)

var (
	cfgFile    string
	baseURL    string
	token      string
	outputJSON bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rmsctl",
	Short: "Miqaat request management from the terminal",
	Long: `rmsctl lists and edits Miqaat requests, groups todo requests into
batches and resolves batches against the RMS API.

Connection settings come from RMS_BASE_URL and RMS_TOKEN (or a .env file).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (overrides RMS_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (overrides RMS_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log API calls")

	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}
	if token != "" {
		cfg.Client.Token = token
	}
	return cfg, nil
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Client.Token) == "" {
		return nil, fmt.Errorf("no token configured: set RMS_TOKEN or pass --token")
	}

	logr := zap.NewNop()
	if verbose {
		cfg.Log.Level = "debug"
		if logr, err = logger.New(cfg); err != nil {
			return nil, fmt.Errorf("failed to init logger: %w", err)
		}
	}

	errOut := cmd.ErrOrStderr()
	session := client.NewSession(cfg.Client.Token, func() {
		fmt.Fprintln(errOut, "Session expired. Obtain a new token and set RMS_TOKEN.")
	})
	return client.NewClient(cfg.Client.BaseURL, session,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		client.WithLogger(logr),
	), nil
}
