package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceURL = "extraction.json"

// Config selects a custom schema and prompt. Empty paths fall back to the defaults.
type Config struct {
	SchemaFile string `env:"EXTRACT_SCHEMA_FILE"`
	PromptFile string `env:"EXTRACT_PROMPT_FILE"`
}

// Schema is the structured-output contract sent to extraction backends.
type Schema struct {
	name        string
	document    map[string]any
	prompt      string
	compiled    *jsonschema.Schema
	fingerprint string
}

// New compiles document and binds it to prompt.
func New(name string, document map[string]any, prompt string) (*Schema, error) {
	if name == "" {
		return nil, errors.New("schema name cannot be empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt cannot be empty")
	}
	if document == nil {
		return nil, errors.New("schema document cannot be nil")
	}

	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	sum := sha256.Sum256(append(append(raw, 0), prompt...))

	return &Schema{
		name:        name,
		document:    document,
		prompt:      prompt,
		compiled:    compiled,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// Load returns the schema named by cfg, or the default polymer schema.
func Load(cfg *Config) (*Schema, error) {
	if cfg == nil || (cfg.SchemaFile == "" && cfg.PromptFile == "") {
		return Default()
	}

	document := defaultDocument()
	name := defaultName
	if cfg.SchemaFile != "" {
		raw, err := os.ReadFile(cfg.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("read schema file: %w", err)
		}
		document = nil
		if err := json.Unmarshal(raw, &document); err != nil {
			return nil, fmt.Errorf("parse schema file %s: %w", cfg.SchemaFile, err)
		}
		name = nameFromDocument(document)
	}

	prompt := DefaultPrompt
	if cfg.PromptFile != "" {
		raw, err := os.ReadFile(cfg.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("read prompt file: %w", err)
		}
		prompt = string(raw)
	}

	return New(name, document, prompt)
}

// Name is the identifier sent with the structured-output request.
func (s *Schema) Name() string {
	return s.name
}

// Document returns the JSON Schema as a generic map.
func (s *Schema) Document() map[string]any {
	return s.document
}

// Prompt returns the extraction instructions.
func (s *Schema) Prompt() string {
	return s.prompt
}

// Fingerprint identifies the schema and prompt pair.
func (s *Schema) Fingerprint() string {
	return s.fingerprint
}

// Decode parses a raw backend reply and validates it against the schema.
func (s *Schema) Decode(raw []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := s.compiled.Validate(v); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}

	payload, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, expected a JSON object", v)
	}
	return payload, nil
}

func nameFromDocument(document map[string]any) string {
	if title, ok := document["title"].(string); ok && title != "" {
		return sanitizeName(title)
	}
	return "extraction"
}

// sanitizeName keeps the characters structured-output names allow.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
