package edgeguard

import "context"

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type fingerprintContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Used for audit
// logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithFingerprint attaches the client-derived device fingerprint to ctx for
// session binding checks.
func WithFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, fingerprintContextKey{}, fingerprint)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// FingerprintFromContext returns the fingerprint attached by
// [WithFingerprint], or "".
func FingerprintFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	fp, _ := ctx.Value(fingerprintContextKey{}).(string)
	return fp
}
