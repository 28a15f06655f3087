package session

import (
	"bytes"
	"testing"
)

func sampleSession() *Session {
	s := &Session{
		Account:        AccountOperator,
		AccessToken:    []byte("sealed-access-token"),
		RefreshToken:   []byte("sealed-refresh-token"),
		MFAVerified:    true,
		CreatedAt:      1700000000,
		LastActivityAt: 1700000100,
		AbsoluteExpiry: 1700028800,
	}
	for i := range s.FingerprintHash {
		s.FingerprintHash[i] = byte(i)
	}
	return s
}

func TestCodecRoundTrip(t *testing.T) {
	original := sampleSession()

	encoded, err := Encode(original)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.Account != original.Account {
		t.Fatalf("account mismatch: %v", decoded.Account)
	}
	if !decoded.MFAVerified {
		t.Fatal("mfa flag lost")
	}
	if decoded.FingerprintHash != original.FingerprintHash {
		t.Fatal("fingerprint hash mismatch")
	}
	if !bytes.Equal(decoded.AccessToken, original.AccessToken) {
		t.Fatal("access token mismatch")
	}
	if !bytes.Equal(decoded.RefreshToken, original.RefreshToken) {
		t.Fatal("refresh token mismatch")
	}
	if decoded.CreatedAt != original.CreatedAt ||
		decoded.LastActivityAt != original.LastActivityAt ||
		decoded.AbsoluteExpiry != original.AbsoluteExpiry {
		t.Fatal("timestamp mismatch")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	encoded, err := Encode(sampleSession())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	encoded[0] = 99

	if _, err := Decode(encoded); err == nil {
		t.Fatal("unknown version accepted")
	}
}

func TestDecodeRejectsInvalidAccountType(t *testing.T) {
	encoded, err := Encode(sampleSession())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	encoded[1] = 200

	if _, err := Decode(encoded); err == nil {
		t.Fatal("invalid account type accepted")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	encoded, err := Encode(sampleSession())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	encoded = append(encoded, 0xAA)

	if _, err := Decode(encoded); err == nil {
		t.Fatal("trailing bytes accepted")
	}
}

func TestDecodeRejectsTruncation(t *testing.T) {
	encoded, err := Encode(sampleSession())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for cut := 0; cut < len(encoded); cut += 7 {
		if _, err := Decode(encoded[:cut]); err == nil {
			t.Fatalf("truncated input accepted at %d bytes", cut)
		}
	}
}

func TestEncodeRejectsOversizedToken(t *testing.T) {
	s := sampleSession()
	s.AccessToken = make([]byte, maxTokenCiphertext+1)

	if _, err := Encode(s); err == nil {
		t.Fatal("oversized token accepted")
	}
}

// FuzzDecode exercises the binary session decoder with arbitrary inputs.
// Goal: no panics, graceful error handling.
func FuzzDecode(f *testing.F) {
	encoded, err := Encode(sampleSession())
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{1, 0, 0})
	f.Add([]byte{255, 255, 255, 255})

	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}
	if len(encoded) > 40 {
		f.Add(encoded[:40])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode of decoded session failed: %v", err)
		}
	})
}
