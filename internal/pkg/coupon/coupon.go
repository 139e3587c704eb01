package coupon

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// Alphabet leaves out 0, O, 1 and I.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const blockLength = 4

type Issuer struct {
	validityMonths int
}

func NewIssuer(validityMonths int) *Issuer {
	if validityMonths <= 0 {
		validityMonths = 1
	}
	return &Issuer{validityMonths}
}

// Generate returns PREFIX-XXXX-XXXX.
func (issuer *Issuer) Generate(prefix string) (string, error) {
	first, err := randomBlock(blockLength)
	if err != nil {
		return "", err
	}
	second, err := randomBlock(blockLength)
	if err != nil {
		return "", err
	}

	return prefix + "-" + first + "-" + second, nil
}

func (issuer *Issuer) ExpiresAt(issuedAt time.Time) time.Time {
	return issuedAt.AddDate(0, issuer.validityMonths, 0)
}

func randomBlock(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(Alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
