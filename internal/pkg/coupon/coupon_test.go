package coupon

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^JJM90-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

func TestGenerateFormat(t *testing.T) {
	issuer := NewIssuer(1)

	for i := 0; i < 200; i++ {
		code, err := issuer.Generate("JJM90")
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		assert.False(t, strings.ContainsAny(code[6:], "0O1I"), code)
	}
}

func TestGenerateIsNotConstant(t *testing.T) {
	issuer := NewIssuer(1)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := issuer.Generate("JJMG2")
		require.NoError(t, err)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestExpiresAtAddsValidityMonths(t *testing.T) {
	issued := time.Date(2026, 2, 23, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 23, 10, 0, 0, 0, time.UTC), NewIssuer(1).ExpiresAt(issued))
	assert.Equal(t, time.Date(2026, 5, 23, 10, 0, 0, 0, time.UTC), NewIssuer(3).ExpiresAt(issued))
	assert.Equal(t, NewIssuer(1).ExpiresAt(issued), NewIssuer(0).ExpiresAt(issued))
}
