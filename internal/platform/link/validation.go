package link

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// EVM address regex: 0x followed by exactly 40 hex characters
var evmAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateEVMAddress validates an EVM address and returns the EIP-55
// checksummed version. A mixed-case input must already carry a valid
// checksum.
func ValidateEVMAddress(address string) (string, error) {
	if address == "" {
		return "", ErrMissingExternalRef
	}

	if !evmAddressRegex.MatchString(address) {
		return "", ErrInvalidAddress
	}

	checksummed := toChecksumAddress(address)
	if isMixedCase(address) && address != checksummed {
		return "", ErrInvalidChecksum
	}

	return checksummed, nil
}

// toChecksumAddress converts an EVM address to EIP-55 checksummed format.
// https://eips.ethereum.org/EIPS/eip-55
func toChecksumAddress(address string) string {
	addr := strings.ToLower(strings.TrimPrefix(address, "0x"))
	hash := keccak256([]byte(addr))

	var result strings.Builder
	result.WriteString("0x")

	for i, c := range addr {
		if c >= '0' && c <= '9' {
			result.WriteRune(c)
			continue
		}
		hashByte := hash[i/2]
		var nibble byte
		if i%2 == 0 {
			nibble = hashByte >> 4
		} else {
			nibble = hashByte & 0x0F
		}
		if nibble >= 8 {
			result.WriteRune(c - 32)
		} else {
			result.WriteRune(c)
		}
	}

	return result.String()
}

// isMixedCase reports whether an address carries both upper and lower hex
// letters, meaning the sender intended a checksum
func isMixedCase(address string) bool {
	addr := strings.TrimPrefix(address, "0x")
	hasUpper := strings.ContainsAny(addr, "ABCDEF")
	hasLower := strings.ContainsAny(addr, "abcdef")
	return hasUpper && hasLower
}

func keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hash.Sum(nil)
}
