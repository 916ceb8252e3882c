package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const tokenFormatVersionV1 = 1

const maxTokenLength = 64 * 1024

var errCorruptTokenBlob = errors.New("corrupt token blob")

func encodeTokenSet(t *TokenSet) ([]byte, error) {
	if len(t.AccessToken) > maxTokenLength || len(t.RefreshToken) > maxTokenLength {
		return nil, errors.New("token too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(tokenFormatVersionV1)

	writeString(&buf, t.AccessToken)
	writeString(&buf, t.RefreshToken)

	if err := binary.Write(&buf, binary.BigEndian, t.ExpiresAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeTokenSet(data []byte) (*TokenSet, error) {
	if len(data) < 2 {
		return nil, errCorruptTokenBlob
	}
	if data[0] != tokenFormatVersionV1 {
		return nil, errCorruptTokenBlob
	}

	rest := data[1:]

	access, rest, ok := readString(rest)
	if !ok {
		return nil, errCorruptTokenBlob
	}
	refresh, rest, ok := readString(rest)
	if !ok {
		return nil, errCorruptTokenBlob
	}
	if len(rest) != 8 {
		return nil, errCorruptTokenBlob
	}

	expiresAt := int64(binary.BigEndian.Uint64(rest))

	return &TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Unix(expiresAt, 0),
	}, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(s)))
	buf.Write(lenBytes[:])
	buf.WriteString(s)
}

func readString(data []byte) (string, []byte, bool) {
	if len(data) < 4 {
		return "", nil, false
	}
	n := binary.BigEndian.Uint32(data[:4])
	if n > maxTokenLength || uint32(len(data)-4) < n {
		return "", nil, false
	}
	return string(data[4 : 4+n]), data[4+n:], true
}
