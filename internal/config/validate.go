package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed custom_categories.schema.json
var customCategoriesSchema []byte

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func categorySchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("custom_categories.schema.json", bytes.NewReader(customCategoriesSchema)); err != nil {
			compileErr = fmt.Errorf("failed to load custom category schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("custom_categories.schema.json")
	})
	return compiledSchema, compileErr
}

// ValidateCustomCategories checks a decoded custom_categories value (as read
// from YAML or JSON) against the embedded schema.
func ValidateCustomCategories(raw any) error {
	if raw == nil {
		return nil
	}
	schema, err := categorySchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so the validator sees JSON types.
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode custom categories: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode custom categories: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("custom_categories: %w", err)
	}
	return nil
}

// Validate checks the configuration for values that would make extraction fail.
// The API key is checked separately by ToOracleConfig so that commands that
// never reach the oracle work without one.
func (c *Config) Validate() error {
	var errs []error

	if len(c.CustomCategories) > 0 {
		if err := ValidateCustomCategories(c.CustomCategories); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.Registry().Lookup(c.Extract.Categories); err != nil {
		errs = append(errs, fmt.Errorf("extract.categories: %w", err))
	}
	if c.OpenAI.PollIntervalMs < 0 {
		errs = append(errs, errors.New("openai.poll_interval_ms must not be negative"))
	}
	if c.OpenAI.MaxRetries < 0 {
		errs = append(errs, errors.New("openai.max_retries must not be negative"))
	}
	if c.OpenAI.RequestTimeoutSeconds < 0 {
		errs = append(errs, errors.New("openai.request_timeout_seconds must not be negative"))
	}
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, errors.New("watch.debounce_ms must not be negative"))
	}

	return errors.Join(errs...)
}
