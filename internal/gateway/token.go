package gateway

import (
	"time"

	"ai-analytics-client/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider supplies the bearer token attached to every gateway call.
// Minting and refresh live outside this client.
type TokenProvider interface {
	Token() (string, error)
}

// StaticTokenProvider hands out a fixed token. If the token parses as a
// JWT it warns once when the exp claim has passed; the call itself still
// goes out and the backend decides.
type StaticTokenProvider struct {
	raw       string
	expiresAt *time.Time
	warned    bool
	logger    logger.ILogger
}

func NewStaticTokenProvider(raw string, log logger.ILogger) *StaticTokenProvider {
	p := &StaticTokenProvider{raw: raw, logger: log}
	if raw == "" {
		return p
	}
	// Unverified parse: we only read exp, the backend verifies signatures.
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return p
	}
	if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
		p.expiresAt = &exp.Time
	}
	return p
}

func (p *StaticTokenProvider) Token() (string, error) {
	if p.expiresAt != nil && !p.warned && time.Now().After(*p.expiresAt) {
		p.warned = true
		if p.logger != nil {
			p.logger.Warn("Gateway", "Bearer token is past its exp claim", map[string]interface{}{
				"expired_at": p.expiresAt.Format(time.RFC3339),
			})
		}
	}
	return p.raw, nil
}
