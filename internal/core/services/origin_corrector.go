package services

import (
	"fmt"
	"net/url"
	"strings"
)

// OriginCorrector sends provider redirects that landed on a development host
// back to the production origin.
type OriginCorrector struct {
	production bool
	wrongHost  string
	target     *url.URL
}

func NewOriginCorrector(production bool, wrongHost, productionOrigin string) (*OriginCorrector, error) {
	target, err := url.Parse(productionOrigin)
	if err != nil {
		return nil, fmt.Errorf("parse production origin: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("production origin %q must include scheme and host", productionOrigin)
	}
	return &OriginCorrector{
		production: production,
		wrongHost:  strings.ToLower(strings.TrimSpace(wrongHost)),
		target:     target,
	}, nil
}

// Correct returns the production URL for current when all of these hold: this
// is a production build, current is on the wrong host, and current carries
// booking confirmation parameters.
func (c *OriginCorrector) Correct(current *url.URL) (string, bool) {
	if !c.production || current == nil || c.wrongHost == "" {
		return "", false
	}
	if strings.ToLower(current.Host) != c.wrongHost {
		return "", false
	}
	if !HasConfirmationParams(current.Query()) {
		return "", false
	}

	corrected := *current
	corrected.Scheme = c.target.Scheme
	corrected.Host = c.target.Host
	corrected.User = nil
	return corrected.String(), true
}
