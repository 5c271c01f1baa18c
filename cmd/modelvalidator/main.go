// Package main implements the modelvalidator CLI tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gofhir/modelvalidator"
	"github.com/gofhir/modelvalidator/pkg/logger"
	"github.com/gofhir/modelvalidator/pkg/validator"
)

// errInvalid signals that at least one input failed validation. The details
// have already been printed.
var errInvalid = errors.New("validation failed")

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	schemaFiles []string
	logLevel    string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "modelvalidator",
		Short: "Validate JSON documents against declarative schemas",
		Long: `modelvalidator validates JSON documents against schemas declared in YAML.

Examples:
  modelvalidator validate -f patient.yaml -s Patient patient.json
  modelvalidator validate -f patient.yaml -s Patient -o outcome *.json
  cat patient.json | modelvalidator validate -f patient.yaml -s Patient -
  modelvalidator dump -f patient.yaml -s Patient --include name,gender patient.json
  modelvalidator schema -f patient.yaml`,
		Version:       modelvalidator.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringSliceVarP(&flags.schemaFiles, "file", "f", nil, "YAML schema document(s) to load")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn, error, none")

	root.AddCommand(
		newValidateCmd(flags),
		newDumpCmd(flags),
		newSchemaCmd(flags),
	)
	return root
}

// newValidator builds a validator from the persistent flags.
func newValidator(cmd *cobra.Command, flags *globalFlags, opts ...validator.Option) (*validator.Validator, error) {
	if len(flags.schemaFiles) == 0 {
		return nil, errors.New("no schema documents given (use --file)")
	}
	level, err := logger.ParseLevel(flags.logLevel)
	if err != nil {
		return nil, err
	}

	base := []validator.Option{validator.WithLogger(logger.New(cmd.ErrOrStderr(), level))}
	for _, path := range flags.schemaFiles {
		base = append(base, validator.WithSchemaFile(path))
	}
	return validator.New(append(base, opts...)...)
}
