package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/logger"
	"typeindex/internal/typeindex"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
	"typeindex/pkg/requestcontext"
)

// app holds the state shared by every subcommand.
type app struct {
	cfgFile string
	webID   string
	jsonOut bool
	out     io.Writer

	cfg    config.Config
	module *typeindex.Module
	build  func(cfg config.Config) (*typeindex.Module, error)
}

func newApp(out io.Writer) *app {
	return &app{
		out: out,
		build: func(cfg config.Config) (*typeindex.Module, error) {
			return typeindex.New(typeindex.Deps{
				Config: cfg,
				Logger: logger.NewWithWriter(os.Stderr, cfg.Log),
			})
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "typeindex",
		Short:         "Manage the Solid type index of a WebID",
		Long:          `Create, inspect and edit the public and private type indexes linked from a WebID profile.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML); TYPEINDEX_* variables override it")
	root.PersistentFlags().StringVarP(&a.webID, "webid", "w", os.Getenv("TYPEINDEX_WEBID"), "WebID to act for")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newInitCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newRegisterCmd(a),
		newUnregisterCmd(a),
		newWriteConfigCmd(a),
	)
	return root
}

// setup loads configuration and builds the registry for commands that talk
// to a pod.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.webID == "" {
		return errors.New("--webid is required")
	}
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.module, err = a.build(cfg)
	if err != nil {
		return err
	}
	cmd.SetContext(requestcontext.WithWebID(cmd.Context(), a.webID))
	return nil
}

func (a *app) profile(ctx context.Context) (models.Profile, error) {
	return a.module.Profiles.Load(ctx, a.webID, ports.RequestOptions{})
}

func (a *app) loadedProfile(ctx context.Context) (models.Profile, error) {
	p, err := a.profile(ctx)
	if err != nil {
		return p, err
	}
	return a.module.Service.LoadRegistry(ctx, p, ports.RequestOptions{})
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
