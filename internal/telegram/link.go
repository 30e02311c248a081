package telegram

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidLinkToken = errors.New("invalid subscription link token")

// LinkSigner issues the tokens that bind a personal filter page to one chat.
// Tokens do not expire: the link stays usable from the chat history.
type LinkSigner struct {
	secret []byte
}

func NewLinkSigner(secret string) *LinkSigner {
	return &LinkSigner{secret: []byte(secret)}
}

func (l *LinkSigner) Sign(chatID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  chatID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign link token: %w", err)
	}
	return token, nil
}

// Verify checks that token was issued for chatID.
func (l *LinkSigner) Verify(chatID, token string) error {
	if chatID == "" || token == "" {
		return ErrInvalidLinkToken
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ErrInvalidLinkToken
	}
	if claims.Subject != chatID {
		return ErrInvalidLinkToken
	}
	return nil
}
