// Package script normalizes the writing script of scraped text so names and
// descriptions from different wiki pages compare equal.
package script

import (
	"fmt"
	"sync"

	"github.com/longbridgeapp/opencc"

	"sancg/pkg/logger"
)

// Converter maps text to the canonical script.
type Converter interface {
	Convert(text string) (string, error)
}

// Identity leaves text untouched. Used when no script profile is configured.
type Identity struct{}

// Convert returns text unchanged
func (Identity) Convert(text string) (string, error) { return text, nil }

// OpenCC converts text using an OpenCC conversion profile such as "t2s".
type OpenCC struct {
	profile string
	mu      sync.Mutex
	cc      *opencc.OpenCC
}

// NewOpenCC loads the dictionaries for profile.
func NewOpenCC(profile string) (*OpenCC, error) {
	cc, err := opencc.New(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load script profile %q: %w", profile, err)
	}
	return &OpenCC{profile: profile, cc: cc}, nil
}

// Profile returns the conversion profile name
func (o *OpenCC) Profile() string { return o.profile }

// Convert applies the conversion profile to text
func (o *OpenCC) Convert(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cc.Convert(text)
}

// New returns the converter for profile. An empty profile or "none" yields
// Identity.
func New(profile string) (Converter, error) {
	switch profile {
	case "", "none":
		return Identity{}, nil
	default:
		return NewOpenCC(profile)
	}
}

// Normalize converts text, falling back to the input when conversion fails.
// Conversion failures are logged at warn level.
func Normalize(c Converter, text string, log logger.Logger) string {
	out, err := c.Convert(text)
	if err != nil {
		if log != nil {
			log.WithError(err).WarnWithFields("Script conversion failed, keeping original text", map[string]interface{}{
				"text": text,
			})
		}
		return text
	}
	return out
}
