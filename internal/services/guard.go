package services

import (
	"strings"

	"github.com/markdave123-py/docflow/internal/core"
	"github.com/markdave123-py/docflow/internal/models"
)

// Guard turns bearer tokens into identities and checks role requirements.
type Guard struct {
	tokens core.TokenIssuer
}

func NewGuard(tokens core.TokenIssuer) *Guard {
	return &Guard{tokens: tokens}
}

func (g *Guard) Authenticate(token string) (models.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Identity{}, core.Unauthorized("Missing authentication token")
	}
	id, err := g.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, &core.Error{Kind: core.KindUnauthorized, Message: "Invalid or expired token", Err: err}
	}
	return id, nil
}

func (g *Guard) Authorize(id models.Identity, required ...models.Role) error {
	return Authorize(id, required...)
}

// Authorize passes when required is empty or contains the caller's role.
func Authorize(id models.Identity, required ...models.Role) error {
	if len(required) == 0 {
		return nil
	}
	for _, r := range required {
		if id.Role == r {
			return nil
		}
	}
	return core.Forbidden("Insufficient role for this operation")
}
