// scriptdeck is the desktop automation host. It runs user scripts as child
// processes and speaks the newline-JSON protocol with them over stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriptdeck/scriptdeck/internal/config"
	"github.com/scriptdeck/scriptdeck/internal/engine"
	"github.com/scriptdeck/scriptdeck/internal/handlers"
	"github.com/scriptdeck/scriptdeck/internal/protocol"
	"github.com/scriptdeck/scriptdeck/internal/router"
	"github.com/scriptdeck/scriptdeck/internal/session"
	"github.com/scriptdeck/scriptdeck/internal/ui"
)

const version = "0.1.0"

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	root := &cobra.Command{
		Use:           "scriptdeck",
		Short:         "Desktop automation script host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "scriptdeck.yaml", "path to configuration file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd(), secretsCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a script and host its protocol session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(os.Stderr, parseLevel(flagLogLevel))

			secrets, err := loadVault(cfg)
			if err != nil {
				return err
			}

			forwarder := ui.NewChannelForwarder(16)
			opts := []router.Option{}
			if cfg.Protocol.RequestTimeout > 0 {
				opts = append(opts, router.WithRequestTimeout(time.Duration(cfg.Protocol.RequestTimeout)))
			}
			rt := router.New(log, forwarder, opts...)

			registry := session.NewRegistry(log, session.Config{
				MaxLineBytes:    cfg.Protocol.MaxLineBytes,
				EventBuffer:     cfg.Protocol.EventBuffer,
				DesyncThreshold: cfg.Protocol.DesyncThreshold,
			})
			eng := engine.New(log, rt, registry)

			rt.Register(&handlers.ScriptLog{Log: log})
			rt.Register(&handlers.FileSearch{Roots: cfg.Search.Roots, MaxResults: cfg.Search.MaxResults})
			rt.Register(&handlers.WindowBounds{Provider: handlers.StaticBounds{
				X: cfg.Window.X, Y: cfg.Window.Y, Width: cfg.Window.Width, Height: cfg.Window.Height,
			}})
			rt.Register(&handlers.State{SessionCount: registry.Count, ActivePromptID: eng.ActivePromptID})
			rt.Register(&handlers.Scriptlets{Dir: cfg.Scripts.Dir})
			rt.Register(&handlers.Vault{Secrets: secrets})
			rt.Register(&handlers.AIModels{Models: aiCatalog(cfg)})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go headlessUI(ctx, log, rt, forwarder)

			s, err := eng.Launch(ctx, session.Spec{Path: args[0], Args: args[1:]})
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				log.Info("shutting down", "signal", sig.String())
			case <-s.Done():
				if code, ok := s.ExitCode(); ok && code != 0 {
					defer os.Exit(code)
				}
			}
			eng.Shutdown()
			return nil
		},
	}
	return cmd
}

// headlessUI is the rendering-surface stand-in used when no interactive
// layer is attached: prompts are logged and cancelled so scripts always get
// a terminal answer instead of hanging.
func headlessUI(ctx context.Context, log *slog.Logger, rt *router.Router, forwarder *ui.ChannelForwarder) {
	for {
		select {
		case <-ctx.Done():
			return
		case fw := <-forwarder.Prompts():
			kind := fw.Msg.MessageKind()
			id, _, hasID := protocol.CorrelationID(fw.Msg)
			if protocol.Initiates(kind) && hasID {
				log.Info("no interactive surface attached, cancelling prompt",
					"session", fw.SessionID, "kind", kind, "id", id)
				_ = rt.CancelFromUI(fw.SessionID, id)
				continue
			}
			log.Debug("ui message", "session", fw.SessionID, "kind", kind)
		}
	}
}

func aiCatalog(cfg *config.Config) []protocol.AIModel {
	models := make([]protocol.AIModel, 0, len(cfg.AI.Models))
	for _, m := range cfg.AI.Models {
		models = append(models, protocol.AIModel{Name: m.Name, Provider: m.Provider})
	}
	return models
}

// loadVault loads the encrypted secret store when present. A missing store
// is not an error; the vault handler answers with empty values.
func loadVault(cfg *config.Config) (map[string]string, error) {
	if _, err := os.Stat(cfg.Secrets.File); os.IsNotExist(err) {
		return nil, nil
	}
	password, err := promptPassword("Enter secrets password: ")
	if err != nil {
		return nil, err
	}
	secrets, err := config.LoadSecretsEncrypted(cfg.Secrets.File, password)
	if err != nil {
		return nil, err
	}
	return secrets, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the host version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scriptdeck version %s\n", version)
		},
	}
}
