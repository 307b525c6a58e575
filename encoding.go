package geuui

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// EncodeToHex encodes the EUUI to a hexadecimal string without separators
func (u EUUI) EncodeToHex() string {
	return hex.EncodeToString(u[:])
}

// EncodeToBase64 encodes the EUUI to a base64 string (URL-safe, no padding)
func (u EUUI) EncodeToBase64() string {
	return base64.RawURLEncoding.EncodeToString(u[:])
}

// EncodeToBase64Std encodes the EUUI to a standard base64 string
func (u EUUI) EncodeToBase64Std() string {
	return base64.StdEncoding.EncodeToString(u[:])
}

// EncodeToBase58 encodes the EUUI with the Bitcoin base58 alphabet.
// Leading zero bytes are kept as leading '1' characters, so the length varies.
func (u EUUI) EncodeToBase58() string {
	return base58.Encode(u[:])
}

// DecodeFromHex decodes a 128-character lowercase hexadecimal string to EUUI
func DecodeFromHex(s string) (EUUI, error) {
	var u EUUI
	if len(s) != StringLength {
		return u, ErrInvalidFormat
	}
	if err := decodeHexSegment(u[:], s); err != nil {
		return u, err
	}
	return u, nil
}

// DecodeFromBase64 decodes a base64 string to EUUI (URL-safe encoding)
func DecodeFromBase64(s string) (EUUI, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return EUUI{}, ErrInvalidFormat
	}
	return decodedPayload(data)
}

// DecodeFromBase64Std decodes a standard base64 string to EUUI
func DecodeFromBase64Std(s string) (EUUI, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return EUUI{}, ErrInvalidFormat
	}
	return decodedPayload(data)
}

// DecodeFromBase58 decodes a base58 string to EUUI
func DecodeFromBase58(s string) (EUUI, error) {
	if s == "" {
		return EUUI{}, ErrInvalidFormat
	}
	data, err := base58.Decode(s)
	if err != nil {
		return EUUI{}, ErrInvalidFormat
	}
	return decodedPayload(data)
}

func decodedPayload(data []byte) (EUUI, error) {
	var u EUUI
	if len(data) != Size {
		return u, ErrInvalidLength
	}
	copy(u[:], data)
	return u, nil
}
