// Package contracts provides the payload types exchanged between the producer
// (parser) and the consumer (CRM) systems.
//
// This package defines:
//   - Record: an open key/value payload whose shape is owned by the contract schema
//   - Envelope: the transport wrapper carrying a record and its contract version
//   - ErrorReply: the structured error body a consumer returns for a rejected record
//
// Records stay untyped on purpose: the schema evolves independently of this
// code and every check is driven by a schema.Document.
package contracts
