// Package resettoken implements stateless, single-use password-reset
// tokens. A token is a keyed HMAC over the user's id, current password
// hash, and last-login timestamp, prefixed with its issue time:
//
//	<unix-seconds-base36>-<hmac-sha256-hex>
//
// Nothing is stored. Changing the password (or logging in) changes the
// signing material, so every outstanding token dies with it; that is the
// single-use property.
package resettoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/models"
)

var (
	ErrExpired   = errors.New("reset token expired or already used")
	ErrMalformed = errors.New("reset token malformed")
)

type Service struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a token bound to the user's current credential state.
func (s *Service) Issue(user *models.User) string {
	ts := s.now().UTC().Unix()
	return strconv.FormatInt(ts, 36) + "-" + s.signature(user, ts)
}

// Verify recomputes the expected token from the user's current state and
// checks the embedded timestamp against the validity window. A token signed
// against an older password hash or last-login value fails here.
func (s *Service) Verify(user *models.User, token string) error {
	tsPart, sigPart, ok := strings.Cut(token, "-")
	if !ok {
		return ErrMalformed
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return ErrMalformed
	}

	expected := s.signature(user, ts)
	if !hmac.Equal([]byte(expected), []byte(sigPart)) {
		return ErrExpired
	}

	now := s.now().UTC().Unix()
	if now-ts > int64(s.ttl.Seconds()) || ts > now {
		return ErrExpired
	}
	return nil
}

func (s *Service) signature(user *models.User, ts int64) string {
	var lastLogin string
	if user.LastLogin != nil {
		lastLogin = strconv.FormatInt(user.LastLogin.UTC().Unix(), 10)
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(user.ID))
	mac.Write([]byte{0})
	mac.Write([]byte(user.PasswordHash))
	mac.Write([]byte{0})
	mac.Write([]byte(lastLogin))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// EncodeUserID produces the URL-safe identifier that travels next to the
// token in reset links.
func EncodeUserID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func DecodeUserID(encoded string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	return string(b), nil
}
