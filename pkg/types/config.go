// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "vaultpipe/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GeneratorConfig holds settings for the generative API client.
type GeneratorConfig struct {
	HTTPConfig `yaml:",inline"`

	// OAuthURL is the token endpoint for client-credentials auth.
	OAuthURL string `json:"oauth_url" yaml:"oauth_url"`

	// APIURL is the chat-completions endpoint.
	APIURL string `json:"api_url" yaml:"api_url"`

	// Scope is the OAuth scope requested with the token.
	Scope string `json:"scope" yaml:"scope"`

	// Model is the model identifier sent with each request.
	Model string `json:"model" yaml:"model"`

	// ClientID and ClientSecret authenticate the OAuth exchange.
	// Usually supplied through the secrets directory rather than the
	// config file.
	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited
	// API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Validate checks the generator configuration.
func (c GeneratorConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.OAuthURL, validation.Required),
		validation.Field(&c.APIURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
	)
}

// VaultConfig holds the vault layout: where notes, the index snapshot,
// and the processing ledger live.
type VaultConfig struct {
	// Dir is the directory generated notes are written to.
	Dir string `json:"dir" yaml:"dir"`

	// IndexPath is the path of the JSON index snapshot.
	IndexPath string `json:"index_path" yaml:"index_path"`

	// LedgerPath is the path of the SQLite processing ledger.
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`
}

// Validate checks the vault configuration.
func (c VaultConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.IndexPath, validation.Required),
	)
}

// LinksConfig holds thresholds for the link inference stage.
type LinksConfig struct {
	// AutoLinkMinConfidence is the minimum confidence for rewriting a
	// bold span into an inline link (default 0.6).
	AutoLinkMinConfidence float64 `json:"auto_link_min_confidence" yaml:"auto_link_min_confidence"`

	// MinRelevance is the relevance floor for the Related Topics
	// section (default 0.4).
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance"`

	// MaxRelated caps similarity-ranked results per note (default 5).
	MaxRelated int `json:"max_related" yaml:"max_related"`

	// MinRelatedRelevance is the similarity floor for ranking
	// (default 0.3).
	MinRelatedRelevance float64 `json:"min_related_relevance" yaml:"min_related_relevance"`
}

// Validate checks the link inference thresholds.
func (c LinksConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AutoLinkMinConfidence, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinRelevance, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinRelatedRelevance, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MaxRelated, validation.Min(0)),
	)
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	Vault     VaultConfig     `json:"vault" yaml:"vault"`
	Links     LinksConfig     `json:"links" yaml:"links"`
}

// Validate checks every stage configuration.
func (c PipelineConfig) Validate() error {
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	return c.Links.Validate()
}
