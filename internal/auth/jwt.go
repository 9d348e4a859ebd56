package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleKiosk is the only role issued to scanning devices.
const RoleKiosk = "kiosk"

var ErrInvalidToken = errors.New("invalid token")

// DeviceToken is a signed token bound to one scanning device.
type DeviceToken struct {
	Token     string    `json:"token"`
	DeviceID  string    `json:"deviceId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims represents JWT payload.
type Claims struct {
	Device string `json:"device"`
	Label  string `json:"label,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and validates device tokens with a shared HS256 key.
type Issuer struct {
	Name string
	Key  []byte
	TTL  time.Duration
	Now  func() time.Time
}

// NewIssuer creates an issuer.
func NewIssuer(name, key string, ttl time.Duration) *Issuer {
	return &Issuer{Name: name, Key: []byte(key), TTL: ttl, Now: time.Now}
}

// Issue signs a token for deviceID.
func (i *Issuer) Issue(deviceID, label string) (DeviceToken, error) {
	if deviceID == "" {
		return DeviceToken{}, errors.New("device id required")
	}
	now := i.Now()
	exp := now.Add(i.TTL)
	claims := Claims{
		Device: deviceID,
		Label:  label,
		Role:   RoleKiosk,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Name,
			Subject:   deviceID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Key)
	if err != nil {
		return DeviceToken{}, err
	}
	return DeviceToken{Token: signed, DeviceID: deviceID, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func (i *Issuer) Parse(tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.Key, nil
	}, jwt.WithTimeFunc(i.Now), jwt.WithIssuer(i.Name))
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Role != RoleKiosk {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
