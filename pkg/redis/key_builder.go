package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyResultsChannel is the channel resolved rounds are published on
func (kb *KeyBuilder) KeyResultsChannel() string {
	return kb.BuildKey(KeyResultsChannel)
}

// KeyLatestResults holds the most recently resolved round
func (kb *KeyBuilder) KeyLatestResults() string {
	return kb.BuildKey(KeyLatestResults)
}
