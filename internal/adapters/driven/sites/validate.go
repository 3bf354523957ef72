package sites

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/philiph/caddy-redirect-guard/internal/core/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validatePolicy runs the structural tag checks and then the policy's own
// invariants.
func validatePolicy(p domain.SitePolicy) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid site policy %s: %w", describe(p), err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid site policy %s: %w", describe(p), err)
	}
	return nil
}

func describe(p domain.SitePolicy) string {
	if p.Host != "" {
		return fmt.Sprintf("host=%q", p.Host)
	}
	return fmt.Sprintf("pattern=%q", p.Pattern)
}
