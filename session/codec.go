package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionCurrent = 1

const maxTokenCiphertext = 64 * 1024

// Encode serializes a session record into the versioned binary wire format.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)
	buf.WriteByte(byte(s.Account))

	var mfa byte
	if s.MFAVerified {
		mfa = 1
	}
	buf.WriteByte(mfa)

	buf.Write(s.FingerprintHash[:])

	if err := writeBlob(&buf, s.AccessToken); err != nil {
		return nil, err
	}
	if err := writeBlob(&buf, s.RefreshToken); err != nil {
		return nil, err
	}

	for _, ts := range []int64{s.CreatedAt, s.LastActivityAt, s.AbsoluteExpiry} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses the versioned binary wire format. SessionID is not part of
// the encoding; callers set it from the storage key.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	account, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if account > byte(AccountAdmin) {
		return nil, errors.New("invalid account type")
	}
	s.Account = AccountType(account)

	mfa, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.MFAVerified = mfa == 1

	if _, err := io.ReadFull(reader, s.FingerprintHash[:]); err != nil {
		return nil, err
	}

	if s.AccessToken, err = readBlob(reader); err != nil {
		return nil, err
	}
	if s.RefreshToken, err = readBlob(reader); err != nil {
		return nil, err
	}

	for _, ts := range []*int64{&s.CreatedAt, &s.LastActivityAt, &s.AbsoluteExpiry} {
		if err := binary.Read(reader, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing session bytes")
	}

	return s, nil
}

func writeBlob(buf *bytes.Buffer, blob []byte) error {
	if len(blob) > maxTokenCiphertext {
		return errors.New("token ciphertext too large")
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(blob))); err != nil {
		return err
	}
	buf.Write(blob)
	return nil
}

func readBlob(reader *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n > maxTokenCiphertext {
		return nil, errors.New("token ciphertext too large")
	}
	if n == 0 {
		return nil, nil
	}
	blob := make([]byte, n)
	if _, err := io.ReadFull(reader, blob); err != nil {
		return nil, err
	}
	return blob, nil
}
