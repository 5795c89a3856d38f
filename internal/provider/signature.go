package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// Verifier validates callback authenticity. It is constructed once with the
// operator's shared secret and holds no other state.
//
// Two HMAC-SHA256 credentials, both hex-encoded:
//   - command hash: HMAC(secret, command) — the coarse per-command value
//     carried in the X-Command-Auth header
//   - request hash: HMAC(secret, command + "|" + timestamp) — the envelope
//     hash field, binding this specific request
type Verifier struct {
	operatorID string
	secret     []byte
}

// NewVerifier creates a verifier for one operator.
func NewVerifier(operatorID, secret string) *Verifier {
	return &Verifier{operatorID: operatorID, secret: []byte(secret)}
}

// OperatorID returns the operator this verifier authenticates.
func (v *Verifier) OperatorID() string { return v.operatorID }

// CommandHash computes the coarse per-command credential.
func (v *Verifier) CommandHash(command string) string {
	return v.sign(command)
}

// RequestHash computes the per-request credential for a command + timestamp.
func (v *Verifier) RequestHash(command string, timestamp int64) string {
	return v.sign(command + "|" + strconv.FormatInt(timestamp, 10))
}

// Verify checks both credentials and fails closed: missing or malformed
// fields, unknown operator, or any hash mismatch yields ErrUnauthorized
// before anything else runs.
func (v *Verifier) Verify(operatorID, commandAuth, command, rawTimestamp, requestHash string) error {
	if operatorID == "" || commandAuth == "" || command == "" || requestHash == "" {
		return domain.ErrUnauthorized("missing credentials")
	}
	if operatorID != v.operatorID {
		return domain.ErrUnauthorized("unknown operator")
	}

	ts, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return domain.ErrUnauthorized("malformed request timestamp")
	}

	if !hmacEqualHex(v.CommandHash(command), commandAuth) {
		return domain.ErrUnauthorized("invalid command credential")
	}
	if !hmacEqualHex(v.RequestHash(command, ts), requestHash) {
		return domain.ErrUnauthorized("invalid request hash")
	}
	return nil
}

func (v *Verifier) sign(payload string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacEqualHex(expected, provided string) bool {
	return hmac.Equal([]byte(expected), []byte(provided))
}
