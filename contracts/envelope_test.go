package contracts

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	t.Run("creates envelope with v7 id and encoded body", func(t *testing.T) {
		env, err := NewEnvelope("Organization", "1.0.0", Record{"name": "Cafe Pushkin"})
		require.NoError(t, err)

		id, err := uuid.Parse(env.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
		assert.Equal(t, "Organization", env.Type)
		assert.Equal(t, "1.0.0", env.ContractVersion)
		assert.False(t, env.Timestamp.IsZero())
		assert.JSONEq(t, `{"name":"Cafe Pushkin"}`, string(env.Body))
	})

	t.Run("Record decodes the body", func(t *testing.T) {
		env, err := NewEnvelope("Organization", "1.0.0", Record{"name": "Cafe Pushkin", "rating": 4})
		require.NoError(t, err)

		rec, err := env.Record()
		require.NoError(t, err)
		assert.Equal(t, "Cafe Pushkin", rec["name"])
		assert.Equal(t, json.Number("4"), rec["rating"])
	})

	t.Run("Record fails on an empty body", func(t *testing.T) {
		env := &Envelope{ID: "x"}
		_, err := env.Record()
		assert.Error(t, err)
	})

	t.Run("SetHeader allocates headers", func(t *testing.T) {
		env := &Envelope{}
		env.SetHeader(HeaderContractVersion, "1.0.0")
		assert.Equal(t, "1.0.0", env.Headers[HeaderContractVersion])
	})
}

func TestErrorReply(t *testing.T) {
	t.Run("defaults to 422 and lists field errors", func(t *testing.T) {
		reply := NewErrorReply(CodeContractViolation, "record rejected",
			FieldError{Field: "external_id", Message: "required field is missing", Kind: "MISSING_REQUIRED"},
		)

		assert.Equal(t, StatusUnprocessable, reply.Status)
		assert.Equal(t, "CONTRACT_VIOLATION: record rejected: external_id (MISSING_REQUIRED)", reply.Error())

		data, err := json.Marshal(reply)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"status": 422,
			"code": "CONTRACT_VIOLATION",
			"message": "record rejected",
			"errors": [{"field":"external_id","message":"required field is missing","kind":"MISSING_REQUIRED"}]
		}`, string(data))
	})

	t.Run("message-only error string", func(t *testing.T) {
		reply := NewErrorReply(CodeUnknownContractVersion, "version 9.9.9 not registered")
		assert.Equal(t, "UNKNOWN_CONTRACT_VERSION: version 9.9.9 not registered", reply.Error())
	})
}
