package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gofhir/modelvalidator/pkg/issue"
	"github.com/gofhir/modelvalidator/pkg/serialize"
)

type dumpFlags struct {
	schema          string
	include         []string
	exclude         []string
	excludeComputed bool
	excludeAbsent   bool
	indent          bool
}

func newDumpCmd(global *globalFlags) *cobra.Command {
	flags := &dumpFlags{}

	cmd := &cobra.Command{
		Use:   "dump [file|-]",
		Short: "Validate a JSON document and print its serialized form",
		Long: `Validates a document and prints the resulting instance as JSON, computed
fields included. --include is applied before --exclude; paths use dots for
nested fields (address.city).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, global, flags, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.schema, "schema", "s", "", "Schema to validate against")
	cmd.Flags().StringSliceVar(&flags.include, "include", nil, "Only dump these field paths")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "Leave out these field paths")
	cmd.Flags().BoolVar(&flags.excludeComputed, "exclude-computed", false, "Leave out computed fields")
	cmd.Flags().BoolVar(&flags.excludeAbsent, "exclude-absent", false, "Leave out optional fields that were not given")
	cmd.Flags().BoolVar(&flags.indent, "indent", false, "Indent the output")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func runDump(cmd *cobra.Command, global *globalFlags, flags *dumpFlags, arg string) error {
	v, err := newValidator(cmd, global)
	if err != nil {
		return err
	}

	inputs := readInputs([]string{arg}, cmd.InOrStdin())
	if len(inputs) != 1 {
		return fmt.Errorf("dump takes exactly one document, %d match %s", len(inputs), arg)
	}
	in := inputs[0]
	if in.err != nil {
		return in.err
	}

	var opts []serialize.Option
	if len(flags.include) > 0 {
		opts = append(opts, serialize.Include(flags.include...))
	}
	if len(flags.exclude) > 0 {
		opts = append(opts, serialize.Exclude(flags.exclude...))
	}
	if flags.excludeComputed {
		opts = append(opts, serialize.ExcludeComputed())
	}
	if flags.excludeAbsent {
		opts = append(opts, serialize.ExcludeAbsent())
	}
	if flags.indent {
		opts = append(opts, serialize.Indent("", "  "))
	}

	out, err := v.Dump(cmd.Context(), flags.schema, in.data, opts...)
	if err != nil {
		var report *issue.Report
		if errors.As(err, &report) {
			printTextResult(cmd.OutOrStdout(), ValidationOutput{
				Input:  in.name,
				Schema: flags.schema,
				Errors: report.ErrorCount(),
				Issues: issueOutputs(report),
			})
			return errInvalid
		}
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
