package config

import "encoding/json"

// RedactedSentinel is substituted for every secret field a Sanitizer
// touches. Passwords must never appear in logs or error payloads (spec
// §4.2) — this is the one fixed value every redaction uses so an operator
// can grep for it.
const RedactedSentinel = "***REDACTED***"

// Sanitizer redacts sensitive fields from a Config before it is logged
// or embedded in an error payload.
type Sanitizer interface {
	Sanitize(cfg *Config) *Config
}

// DefaultSanitizer implements Sanitizer with RedactedSentinel.
type DefaultSanitizer struct{}

// NewSanitizer returns the default Sanitizer.
func NewSanitizer() Sanitizer {
	return DefaultSanitizer{}
}

// Sanitize returns a deep copy of cfg with the drive password
// redacted. Spec §4.2/§7: passwords must never appear in error
// payloads; every other field is left as-is.
func (DefaultSanitizer) Sanitize(cfg *Config) *Config {
	sanitized := deepCopy(cfg)
	sanitized.Drive.Password = RedactedSentinel
	return sanitized
}

func deepCopy(cfg *Config) *Config {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return cfg
	}
	var cp Config
	if err := json.Unmarshal(raw, &cp); err != nil {
		return cfg
	}
	return &cp
}
