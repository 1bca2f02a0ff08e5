/*
Package randx provides functions for generating cryptographically secure
random tokens and storage object keys.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ObjectTokenLength is the length of the random segment of an object key.
	ObjectTokenLength = 12
)

// Token generates a Base62 string of the given length using a
// cryptographically secure random number generator (crypto/rand).
func Token(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ObjectKey builds a storage key for a file attachment, scoped under the
// room id and made collision-free by a random segment. Only the original
// file's extension is carried over, never its name.
func ObjectKey(roomID, fileName string) (string, error) {
	token, err := Token(ObjectTokenLength)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	return roomID + "/" + token + ext, nil
}
