package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reoring/msgskema"
	"github.com/reoring/msgskema/document"
	"github.com/reoring/msgskema/i18n"
	"github.com/reoring/msgskema/overlay"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	cfgFile  string
	logLevel string
	lang     string

	cfg    Config
	logger zerolog.Logger
	out    io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "msgskema",
		Short: "Validate message schemas and check compatibility between versions",
		Long: `msgskema works with message schema documents (JSON or YAML).

Schemas:
  msgskema validate schema.yaml      # Validate one or more schemas
  msgskema groups schema.yaml        # List groups in dependency order
  msgskema assign-ids schema.yaml    # Derive missing group ids from names
  msgskema convert a.yaml a.json     # Convert between document formats
  msgskema jsonschema schema.yaml    # Export as JSON Schema

Evolution:
  msgskema compat --source v1.yaml --dest v2.yaml --direction inbound
  msgskema watch schema.yaml         # Reload and re-validate on change`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "msgskema.toml", "config file path")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")
	root.PersistentFlags().StringVar(&a.lang, "lang", "", "message language: en or ja (overrides config)")

	root.AddCommand(
		newValidateCmd(a),
		newGroupsCmd(a),
		newAssignIDsCmd(a),
		newConvertCmd(a),
		newJSONSchemaCmd(a),
		newCompatCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, errOut io.Writer) error {
	cfg, err := loadConfig(a.cfgFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		lvl, err := zerolog.ParseLevel(a.logLevel)
		if err != nil {
			return fmt.Errorf("parse --log-level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if a.lang != "" {
		cfg.Language = a.lang
	}
	a.cfg = cfg
	a.logger = newLogger(errOut, cfg.LogLevel)
	i18n.SetLanguage(cfg.Language)
	return nil
}

// loadSchema reads a schema document and applies the configured overlay.
func (a *app) loadSchema(path string) (*msgskema.Schema, error) {
	s, err := document.LoadSchema(path)
	if err != nil {
		return nil, err
	}
	if a.cfg.Overlay == "" {
		return s, nil
	}
	o, err := overlay.Load(a.cfg.Overlay)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("overlay", a.cfg.Overlay).Str("mode", a.cfg.OverlayMode.String()).Msg("applying overlay")
	return o.Apply(s, a.cfg.OverlayMode)
}
