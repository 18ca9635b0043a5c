package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/automationhub/console/pkg/qs"
)

func newQSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qs",
		Short: "Encode and decode list query strings",
	}
	cmd.AddCommand(newQSEncodeCmd(), newQSDecodeCmd())
	return cmd
}

type qsSchemaFlags struct {
	ints    []string
	bools   []string
	strings []string
}

func (f *qsSchemaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.ints, "int", nil, "keys decoded as integers")
	cmd.Flags().StringSliceVar(&f.bools, "bool", nil, "keys decoded as booleans")
	cmd.Flags().StringSliceVar(&f.strings, "list", nil, "keys holding repeated values")
}

func (f *qsSchemaFlags) schema() qs.Schema {
	s := qs.Schema{}
	for _, k := range f.ints {
		s[k] = qs.Int
	}
	for _, k := range f.bools {
		s[k] = qs.Bool
	}
	for _, k := range f.strings {
		s[k] = qs.Strings
	}
	return s
}

func newQSEncodeCmd() *cobra.Command {
	var schema qsSchemaFlags
	var namespace string
	cmd := &cobra.Command{
		Use:   "encode key=value...",
		Short: "Print the canonical query string for the given pairs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := make([]string, 0, len(args))
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok || key == "" {
					return errors.Errorf("expected key=value, got %q", arg)
				}
				if namespace != "" {
					key = namespace + "." + key
				}
				pairs = append(pairs, key+"="+value)
			}
			// decoding first applies the schema, so ints and lists encode canonically
			params := qs.Decode(strings.Join(pairs, "&"), namespaced(schema.schema(), namespace))
			_, err := fmt.Fprintln(cmd.OutOrStdout(), qs.Encode(params))
			return err
		},
	}
	schema.register(cmd)
	cmd.Flags().StringVar(&namespace, "ns", "", "namespace prefixed to every key")
	return cmd
}

func newQSDecodeCmd() *cobra.Command {
	var schema qsSchemaFlags
	var namespace string
	var defaults string
	cmd := &cobra.Command{
		Use:   "decode <query>",
		Short: "Print the parameters of a query string as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params qs.Params
			if namespace == "" {
				params = qs.Decode(args[0], schema.schema())
			} else {
				base := qs.Decode(defaults, schema.schema())
				params = qs.ParseNamespaced(qs.NewConfig(namespace, base, schema.schema()), args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(params)
		},
	}
	schema.register(cmd)
	cmd.Flags().StringVar(&namespace, "ns", "", "only read keys of this namespace, merged over --defaults")
	cmd.Flags().StringVar(&defaults, "defaults", "", "default parameters as a query string")
	return cmd
}

func namespaced(schema qs.Schema, namespace string) qs.Schema {
	if namespace == "" {
		return schema
	}
	out := make(qs.Schema, len(schema))
	for k, t := range schema {
		out[namespace+"."+k] = t
	}
	return out
}
