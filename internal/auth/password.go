package auth

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var (
	ErrPasswordTooShort   = errors.New("password is too short, it must contain at least 8 characters")
	ErrPasswordNumeric    = errors.New("password is entirely numeric")
	ErrPasswordCommon     = errors.New("password is too common")
	ErrPasswordTooSimilar = errors.New("password is too similar to the username, email or name")
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "admin123": {},
	"letmein1": {}, "abc12345": {}, "trustno1": {}, "passw0rd": {}, "11111111": {},
}

// ValidatePassword returns the first rule the password breaks.
// attrs are user attributes (username, email, names) the password must not resemble.
func ValidatePassword(password string, attrs ...string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		return ErrPasswordNumeric
	}

	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		return ErrPasswordCommon
	}

	for _, attr := range attrs {
		if tooSimilar(lower, strings.ToLower(attr)) {
			return ErrPasswordTooSimilar
		}
	}
	return nil
}

// MaxSimilarity is the match ratio at which a password counts as too similar to a user attribute.
const MaxSimilarity = 0.7

var nonWord = regexp.MustCompile(`\W+`)

// tooSimilar compares the password against the whole attribute and each of its word parts.
func tooSimilar(password, attr string) bool {
	if attr == "" {
		return false
	}
	pwd := []rune(password)
	for _, part := range append(nonWord.Split(attr, -1), attr) {
		p := []rune(part)
		if len(p) == 0 {
			continue
		}
		// A much longer password cannot reach the ratio against a short part.
		if len(pwd) >= 10*len(p) && float64(len(p)) < MaxSimilarity/2*float64(len(pwd)) {
			continue
		}
		if matchRatio(pwd, p) >= MaxSimilarity {
			return true
		}
	}
	return false
}

// matchRatio is 2*M/T where M counts the characters in matching blocks.
func matchRatio(a, b []rune) float64 {
	return 2 * float64(matchingChars(a, b)) / float64(len(a)+len(b))
}

// matchingChars takes the longest common block, then recurses on both sides of it.
func matchingChars(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingChars(a[:i], b[:j]) + matchingChars(a[i+k:], b[j+k:])
}

// longestMatch returns the earliest longest common block of a and b.
func longestMatch(a, b []rune) (besti, bestj, bestk int) {
	prev := make([]int, len(b)+1)
	for i := range a {
		cur := make([]int, len(b)+1)
		for j := range b {
			if a[i] != b[j] {
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > bestk {
				bestk = cur[j+1]
				besti, bestj = i-bestk+1, j-bestk+1
			}
		}
		prev = cur
	}
	return besti, bestj, bestk
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
