package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glimte/contractgate/schema"
)

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the registered contract versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-30s %-8s %-8s\n", "Version", "Name", "Fields", "Required")
			rule(out, 62)

			for _, v := range registry.Versions() {
				doc, err := registry.Resolve(v.String())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-12s %-30s %-8d %-8d\n",
					v,
					truncate(doc.Name(), 30),
					doc.Len(),
					len(doc.RequiredFields()),
				)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a schema document as JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schema.ParseFile(schemaPath)
			if err != nil {
				return err
			}

			data, err := doc.JSONSchema()
			if err != nil {
				return fmt.Errorf("failed to export %s: %w", schemaPath, err)
			}

			a.logger.Debug("schema exported", "name", doc.Name(), "version", doc.Version().String())
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Schema document to export")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}
