package params

import "time"

const (
	SessionTokenBytes       = 32                  // random bytes per session token, hex encoded
	SessionMaxAge           = 24 * time.Hour      // session lifetime without remember-me
	SessionRememberMeMaxAge = 30 * 24 * time.Hour // session lifetime with remember-me
	MaxActiveSessions       = 3                   // hard cap on concurrent active sessions per user

	MaxFailedLoginAttempts = 5                // failed logins before the account is locked
	AccountLockDuration    = 15 * time.Minute // how long a locked account stays locked

	RefreshTokenBytes          = 40                 // random bytes per refresh token, hex encoded
	RefreshTokenMaxAge         = 7 * 24 * time.Hour // refresh token lifetime
	AccessTokenMaxAge          = 15 * time.Minute   // signed access token lifetime
	EmailVerificationMaxAge    = 24 * time.Hour     // email verification token lifetime
	PasswordResetTokenMaxAge   = 1 * time.Hour      // password reset token lifetime
	VerificationTokenBytes     = 32                 // random bytes per verification/reset token
	TwoFactorBackupCodeCount   = 10                 // backup codes issued per 2FA setup
	TwoFactorValidationSkew    = 2                  // accepted TOTP clock skew, in 30s steps
	TwoFactorSecretLength      = 32                 // TOTP shared secret length in bytes
	RiskAlertThreshold         = 20                 // risk score at which a login is flagged
	RapidLoginWindow           = 5 * time.Minute    // window for the rapid-login risk rule
	BruteForceWindow           = 15 * time.Minute   // window for brute-force detection
	BruteForceAttemptThreshold = 10                 // failed attempts per IP to flag brute force
	PasswordSprayWindow        = 30 * time.Minute   // window for password-spray detection
	PasswordSprayMinEmails     = 5                  // distinct targeted emails per IP to flag a spray
	PasswordSprayMinAttempts   = 10                 // total failed attempts per IP to flag a spray

	SessionSweepInterval    = 10 * time.Minute // default cadence of the expired-session sweep
	PasswordSprayInterval   = 5 * time.Minute  // default cadence of the password-spray sweep
	PasswordSprayLockKey    = "sweep:password_spray"
	PasswordSprayLockMaxAge = 4 * time.Minute // spray sweep lock TTL; must outlive one sweep

	HealthCheckServerAddr = ":3001" // health check server address

	ServerBodyLimit    = 4 * 1024 * 1024 // request body limit
	ServerIdleTimeout  = 75 * time.Second
	ServerReadTimeout  = 15 * time.Second
	ServerWriteTimeout = 15 * time.Second

	AuthRateLimitMax    = 20          // requests per source IP per window on the auth endpoints
	AuthRateLimitWindow = time.Minute // rate limit window
)
