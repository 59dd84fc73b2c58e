// Package schema defines versioned contract documents and the registry that
// holds them.
//
// A Document describes one version of an exchanged object (for example the
// Organization record sent from the parser to the CRM): its name, semantic
// version and an ordered list of FieldSpec entries carrying type, format,
// enum and range constraints. Documents are immutable once built.
//
// Documents are parsed from a YAML or JSON source:
//
//	name: Organization
//	version: 1.1.0
//	fields:
//	  - name: external_id
//	    type: string
//	    format: uuid
//	    uuid_version: 7
//	    required: true
//	  - name: partnership_status
//	    type: enum
//	    enum: [partner, potential_partner]
//
// A Registry caches documents by exact version for the lifetime of the
// process:
//
//	registry := schema.NewRegistry(schema.WithLogger(logger))
//	if err := registry.LoadDir("contracts/"); err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := registry.Resolve("1.1.0")
//
// Concurrent Resolve calls never block each other; Register serializes so a
// version can only ever be registered once.
package schema
