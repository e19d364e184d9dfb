package identity

// Logical provider names used everywhere downstream of the OAuth layer.
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
)

// rawAzureAD is the provider identifier the enterprise-directory OAuth flow
// reports; it never leaves the OAuth layer.
const rawAzureAD = "azure-ad"

// NormalizeProvider maps a raw OAuth provider identifier to the logical name
// used in user-service calls and stored sessions. The azure-ad identifier
// becomes "microsoft"; everything else passes through unchanged.
func NormalizeProvider(p string) string {
	if p == rawAzureAD {
		return ProviderMicrosoft
	}
	return p
}
