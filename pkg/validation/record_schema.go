package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/pkg/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchemaURL = "record.schema.json"

//go:embed schema/record.schema.json
var recordSchemaJSON string

var (
	recordSchemaOnce sync.Once
	recordSchema     *jsonschema.Schema
	recordSchemaErr  error
)

func loadRecordSchema() (*jsonschema.Schema, error) {
	recordSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(recordSchemaURL, strings.NewReader(recordSchemaJSON)); err != nil {
			recordSchemaErr = fmt.Errorf("failed to load record schema: %w", err)
			return
		}
		recordSchema, recordSchemaErr = compiler.Compile(recordSchemaURL)
	})
	return recordSchema, recordSchemaErr
}

// ValidateRecord checks the persisted document against the embedded JSON schema
func ValidateRecord(record models.PersistedMetadata) error {
	schema, err := loadRecordSchema()
	if err != nil {
		return apperrors.NewInternalError("record schema unavailable", err)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewInternalError("failed to encode record", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return apperrors.NewInternalError("failed to decode record", err)
	}

	if err := schema.Validate(doc); err != nil {
		return apperrors.NewValidationError("metadata record does not match schema", err).WithDetails(err.Error())
	}
	return nil
}
