// Package receipt issues receipt identifiers, signed receipt tokens for
// scanning at the exit gate, and printable receipts.
package receipt

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"parkinglot/backend/services/parking-service/internal/models"
)

const (
	// IDPrefix starts every receipt id.
	IDPrefix = "PK-"

	idMin   = 100000
	idRange = 900000
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("receipt: invalid token")

// NewID returns a receipt id such as PK-482913.
func NewID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(idRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", IDPrefix, idMin+n.Int64()), nil
}

// NormalizeID upper-cases and trims a scanned receipt id.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Claims is the payload of a receipt token.
type Claims struct {
	ReceiptID     string `json:"rid"`
	VehicleNumber string `json:"vno"`
	jwt.RegisteredClaims
}

// Signer creates and verifies HS256 receipt tokens.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner returns a token signer.
func NewSigner(secret, issuer string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("receipt: signing secret is required")
	}
	if issuer == "" {
		issuer = "parking-service"
	}
	return &Signer{secret: []byte(secret), issuer: issuer}, nil
}

// Sign issues a token for the entry. Tokens carry no expiry; the entry's
// active state decides whether they can still be used.
func (s *Signer) Sign(entry *models.ParkingEntry) (string, error) {
	if entry == nil || entry.ID == "" {
		return "", errors.New("receipt: entry id is required")
	}
	claims := Claims{
		ReceiptID:     entry.ReceiptID,
		VehicleNumber: entry.VehicleNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.issuer,
			Subject:  entry.ID,
			IssuedAt: jwt.NewNumericDate(entry.EntryTime.UTC().Truncate(time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify decodes a token and returns its claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
