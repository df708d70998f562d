package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/honeypot/internal/profile"
	"github.com/hrygo/honeypot/server"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "honeypot",
		Short: "A conversational scam honeypot that engages scammers and reports what it extracts.",
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile, err := profileFromFlags()
			if err != nil {
				slog.Error("invalid configuration", "error", err)
				os.Exit(1)
			}
			if err := serve(context.Background(), instanceProfile); err != nil {
				slog.Error("server exited with error", "error", err)
				os.Exit(1)
			}
		},
	}
)

// profileFromFlags builds the profile from bound flags and HONEYPOT_* env.
func profileFromFlags() (*profile.Profile, error) {
	// The flag default is non-zero, so zero here was set explicitly.
	if threshold := viper.GetFloat64("scam-threshold"); threshold <= 0 {
		return nil, errors.Errorf("scam threshold must be within (0, 1], got %v", threshold)
	}

	instanceProfile := &profile.Profile{
		Mode:          viper.GetString("mode"),
		Addr:          viper.GetString("addr"),
		Port:          viper.GetInt("port"),
		Version:       version,
		APIKey:        viper.GetString("api-key"),
		ScamThreshold: viper.GetFloat64("scam-threshold"),
		MaxTurns:      viper.GetInt("max-turns"),
		TriggerExpr:   viper.GetString("report-trigger"),
		ReportURL:     viper.GetString("report-url"),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// serve runs the server until SIGINT or SIGTERM. It returns an error when the
// server cannot be built or started.
func serve(ctx context.Context, instanceProfile *profile.Profile) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := server.NewServer(ctx, instanceProfile)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	// The default signal sent by the `kill` command is SIGTERM,
	// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	if err := s.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start server")
	}

	printGreetings(instanceProfile)

	// Wait for CTRL-C.
	<-c
	return s.Shutdown(ctx)
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8080)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of server")
	rootCmd.PersistentFlags().String("api-key", "", "shared key expected in the x-api-key header")
	rootCmd.PersistentFlags().Float64("scam-threshold", profile.DefaultScamThreshold, "score at or above which a fresh session is treated as a scam")
	rootCmd.PersistentFlags().Int("max-turns", profile.DefaultMaxTurns, "turn count that forces a final report")
	rootCmd.PersistentFlags().String("report-trigger", "", "CEL expression over turns, max_turns, min_turns and critical_intel")
	rootCmd.PersistentFlags().String("report-url", profile.DefaultReportURL, "endpoint receiving final session reports")

	for _, name := range []string{"mode", "addr", "port", "api-key", "scam-threshold", "max-turns", "report-trigger", "report-url"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("honeypot")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("Honeypot %s started successfully!\n", p.Version)

	if p.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	if p.Addr == "" {
		fmt.Printf("Server running on port %d\n", p.Port)
		fmt.Printf("Accessing Honeypot API at: http://localhost:%d/api/honey-pot\n", p.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", p.Addr, p.Port)
		fmt.Printf("Accessing Honeypot API at: http://%s:%d/api/honey-pot\n", p.Addr, p.Port)
	}
	fmt.Printf("Version: %s\n", p.Version)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
