package ebay

import (
	"fmt"
	"strings"
)

// Credential is the application identity used for the client credentials
// grant. ClientKey is eBay's App ID and ClientSecret its Cert ID.
type Credential struct {
	ClientKey    string
	ClientSecret string
	Scopes       []string
	Sandbox      bool
}

// NewCredential builds a Credential. Scopes keep their order; duplicates
// and empty entries are dropped. With no scopes, ScopePublic is requested.
func NewCredential(key, secret string, scopes []string, sandbox bool) Credential {
	seen := make(map[string]struct{}, len(scopes))
	ordered := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		ordered = append(ordered, s)
	}
	if len(ordered) == 0 {
		ordered = append(ordered, ScopePublic)
	}

	return Credential{
		ClientKey:    key,
		ClientSecret: secret,
		Scopes:       ordered,
		Sandbox:      sandbox,
	}
}

// scope returns the space-joined scope list sent to the token endpoint.
func (c Credential) scope() string {
	return strings.Join(c.Scopes, " ")
}

// String never includes the client secret.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{key=%s, scopes=%d, sandbox=%t}", c.ClientKey, len(c.Scopes), c.Sandbox)
}
