// Package twofactor implements the TOTP and backup-code verification
// primitives. It is stateless; persisting secrets and consumed backup codes
// is the caller's concern.
package twofactor

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/visiontf/authcore/internal/common"
	"github.com/visiontf/authcore/params"
)

type Secret struct {
	Secret          string
	ProvisioningURI string
}

type Verifier struct {
	issuer string
}

func NewVerifier(issuer string) *Verifier {
	return &Verifier{issuer: issuer}
}

// GenerateSecret produces a fresh shared secret and the otpauth
// provisioning URI embedding issuer and account label.
func (v *Verifier) GenerateSecret(accountName string) (*Secret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      v.issuer,
		AccountName: accountName,
		SecretSize:  params.TwoFactorSecretLength,
	})
	if err != nil {
		return nil, err
	}
	return &Secret{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
	}, nil
}

// VerifyCode validates a time-based code against the secret, tolerating
// params.TwoFactorValidationSkew steps of clock drift on either side.
func (v *Verifier) VerifyCode(code string, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      params.TwoFactorValidationSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateBackupCodes returns params.TwoFactorBackupCodeCount single-use
// recovery codes, each 8 uppercase hex characters. Codes are independently
// random; the caller may treat the astronomically unlikely collision as
// acceptable.
func GenerateBackupCodes() []string {
	codes := make([]string, params.TwoFactorBackupCodeCount)
	for i := range codes {
		codes[i] = strings.ToUpper(common.GenerateToken(4))
	}
	return codes
}

// ConsumeBackupCode checks code against the list with a case-sensitive
// exact match and, on a hit, returns the list with the first matching
// occurrence removed. The input slice is never mutated; the caller persists
// the returned list to make consumption stick.
func ConsumeBackupCode(code string, codes []string) ([]string, bool) {
	for i, candidate := range codes {
		if candidate == code {
			remaining := make([]string, 0, len(codes)-1)
			remaining = append(remaining, codes[:i]...)
			remaining = append(remaining, codes[i+1:]...)
			return remaining, true
		}
	}
	return codes, false
}
