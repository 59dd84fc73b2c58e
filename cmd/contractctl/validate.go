package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glimte/contractgate/schema"
	"github.com/glimte/contractgate/schema/openapi"
	"github.com/glimte/contractgate/validation"
)

type fileResult struct {
	File   string            `json:"file"`
	Result validation.Result `json:"result"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		contractVersion string
		openapiFile     string
		component       string
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "validate record.json...",
		Short: "Validate records against a contract version",
		Long: `Validate each JSON record against a schema version. --version takes an exact
version or a range; the highest matching version in the schema directory is used,
and the latest when --version is not given. Exits non-zero when any
record is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.resolveDocument(contractVersion, openapiFile, component)
			if err != nil {
				return err
			}

			validator := a.validator()
			results := make([]fileResult, 0, len(args))
			invalid := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read record %s: %w", path, err)
				}
				result, err := validator.ValidateJSON(doc, data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if !result.Valid {
					invalid++
				}
				results = append(results, fileResult{File: path, Result: result})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResults(out, doc, results)
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d records invalid against %s %s", invalid, len(results), doc.Name(), doc.Version())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contractVersion, "version", "", "Contract version or range such as ^1.1 (default latest)")
	cmd.Flags().BoolVar(&a.unknownFatal, "unknown-fatal", false, "Treat unknown fields as errors (env CONTRACT_UNKNOWN_FIELDS_FATAL)")
	cmd.Flags().BoolVar(&a.strictUUID, "strict-uuid", false, "Enforce the declared UUID version (env CONTRACT_STRICT_UUID_VERSION)")
	cmd.Flags().StringVar(&openapiFile, "openapi", "", "Load the schema from an OpenAPI document instead of --schema-dir")
	cmd.Flags().StringVar(&component, "component", "", "Component schema name in the OpenAPI document")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

// resolveDocument picks the schema from an OpenAPI file or the schema directory
func (a *app) resolveDocument(contractVersion, openapiFile, component string) (*schema.Document, error) {
	if openapiFile != "" {
		if component == "" {
			return nil, fmt.Errorf("--component is required with --openapi")
		}
		doc, err := openapi.LoadFile(openapiFile, component)
		if err != nil {
			return nil, err
		}
		if contractVersion != "" {
			want, err := schema.ParseVersion(contractVersion)
			if err != nil {
				return nil, err
			}
			if doc.Version().Compare(want) != 0 {
				return nil, fmt.Errorf("%s describes version %s, not %s", openapiFile, doc.Version(), want)
			}
		}
		return doc, nil
	}

	registry, err := a.registry()
	if err != nil {
		return nil, err
	}
	return registry.ResolveConstraint(contractVersion)
}

func printResults(w io.Writer, doc *schema.Document, results []fileResult) {
	fmt.Fprintf(w, "Contract: %s %s\n", doc.Name(), doc.Version())
	rule(w, 80)

	for _, r := range results {
		status := "VALID"
		if !r.Result.Valid {
			status = "INVALID"
		}
		fmt.Fprintf(w, "%-60s %s\n", truncate(r.File, 60), status)

		for _, e := range r.Result.Errors {
			level := "error"
			if !e.Fatal {
				level = "warn"
			}
			fmt.Fprintf(w, "  [%s] %s %s: %s\n", level, e.Kind, e.Field, e.Message)
		}
	}
}
