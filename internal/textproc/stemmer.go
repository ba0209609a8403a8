package textproc

import (
	"fmt"

	"github.com/kljensen/snowball"
)

// Stemmer reduces a token to its stem.
type Stemmer interface {
	Stem(token string) string
}

// Snowball stems tokens with the Snowball algorithm for one language.
type Snowball struct {
	language string
}

var snowballLanguages = map[string]bool{
	"english":   true,
	"spanish":   true,
	"french":    true,
	"russian":   true,
	"swedish":   true,
	"norwegian": true,
	"hungarian": true,
}

// NewSnowball returns a Snowball stemmer for language.
func NewSnowball(language string) (*Snowball, error) {
	if !snowballLanguages[language] {
		return nil, fmt.Errorf("unsupported stemmer language %q", language)
	}
	return &Snowball{language: language}, nil
}

// Stem returns the stemmed token, or the token itself if stemming fails.
// Stop words were already removed, so they are stemmed like any other word.
func (s *Snowball) Stem(token string) string {
	stemmed, err := snowball.Stem(token, s.language, true)
	if err != nil {
		return token
	}
	return stemmed
}

// Identity leaves tokens unchanged.
type Identity struct{}

func (Identity) Stem(token string) string { return token }
