package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/agegate/pkg/crypto"
)

const visitorSecretBytes = 48

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
// A generated visitor secret invalidates existing visitor tokens on restart; the
// cookie leg of the gate keeps working, so this degrades rather than breaks.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Gate.Visitor.Secret) == "" {
		secret, err := crypto.GenerateToken(visitorSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate visitor secret: %w", err)
		}
		cfg.Gate.Visitor.Secret = secret
		generated["gate.visitor.secret"] = true
	}

	return generated, nil
}
