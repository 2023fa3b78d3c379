package auth

// SecretProvider supplies the process-wide secrets used for API key
// fingerprinting and OAuth token sealing. It is injected into the components
// that need it so tests can supply fixture secrets.
type SecretProvider interface {
	// APIKeySecret is mixed into every API key fingerprint.
	APIKeySecret() string
	// EncryptionKey is the 32-byte AES-256-GCM key for sealed OAuth tokens.
	EncryptionKey() []byte
}

// StaticSecrets is a SecretProvider backed by fixed values from configuration.
type StaticSecrets struct {
	KeySecret string
	EncKey    []byte
}

func (s *StaticSecrets) APIKeySecret() string  { return s.KeySecret }
func (s *StaticSecrets) EncryptionKey() []byte { return s.EncKey }
