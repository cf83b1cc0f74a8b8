package eventjws

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/types"
	"github.com/relayworks/eventserver-go/pkg/util"
)

// Audience is the required aud claim of every event JWS
const Audience = "event_server"

// deviceJWK is the JWK shape devices register at certificate issuance.
// A private d component, if present, is ignored.
type deviceJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// VerifyEventJWS verifies an ES256 compact JWS against the device public key
// from the certificate and returns the event package from its payload claim.
// The key material is the base64 of a JWK JSON string, exactly as supplied
// at PoW verification time.
func VerifyEventJWS(tokenString, devicePublicKey string) (*types.EventPackage, error) {
	key, err := importDeviceKey(devicePublicKey)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAuthentication, err, "JWT verification failed")
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), key),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAuthentication, err, "JWT verification failed")
	}

	// exp must be present; WithValidate only enforces it when set
	if _, ok := token.Expiration(); !ok {
		return nil, apperror.Authentication("JWT verification failed")
	}

	audiences, ok := token.Audience()
	if !ok || len(audiences) != 1 || audiences[0] != Audience {
		return nil, apperror.Authentication("JWT verification failed")
	}

	var claims struct {
		Payload *types.EventPackage `json:"payload"`
	}
	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAuthentication, err, "JWT verification failed")
	}
	if err := json.Unmarshal(tokenBytes, &claims); err != nil {
		return nil, apperror.Wrap(apperror.KindAuthentication, err, "JWT verification failed")
	}
	if claims.Payload == nil {
		return nil, apperror.Authentication("JWT verification failed")
	}

	return claims.Payload, nil
}

// importDeviceKey decodes the base64-wrapped JWK string into a P-256
// verification key
func importDeviceKey(material string) (jwk.Key, error) {
	jwkJSON, err := util.Base64Decode(material)
	if err != nil {
		return nil, fmt.Errorf("public key is not valid base64: %w", err)
	}

	var parsed deviceJWK
	if err := json.Unmarshal(jwkJSON, &parsed); err != nil {
		return nil, fmt.Errorf("public key is not a JWK object: %w", err)
	}
	if parsed.Kty != "EC" {
		return nil, fmt.Errorf("unsupported key type %q", parsed.Kty)
	}
	if parsed.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve %q", parsed.Crv)
	}

	xBytes, err := util.Base64URLDecode(parsed.X)
	if err != nil {
		return nil, fmt.Errorf("invalid x coordinate: %w", err)
	}
	yBytes, err := util.Base64URLDecode(parsed.Y)
	if err != nil {
		return nil, fmt.Errorf("invalid y coordinate: %w", err)
	}
	if len(xBytes) != 32 || len(yBytes) != 32 {
		return nil, fmt.Errorf("coordinates must be 32 bytes, got %d and %d", len(xBytes), len(yBytes))
	}

	curve := elliptic.P256()
	x := new(big.Int).SetBytes(xBytes)
	y := new(big.Int).SetBytes(yBytes)
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("point is not on P-256")
	}

	return jwk.Import(&ecdsa.PublicKey{Curve: curve, X: x, Y: y})
}
