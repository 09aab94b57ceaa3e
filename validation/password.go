package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MinPasswordLength = 8
	maxSimilarity     = 0.7
)

// UserAttributes are the values a password must not resemble.
type UserAttributes struct {
	Username string
	Email    string
}

var nonWord = regexp.MustCompile(`\W+`)

// Password checks pw against the password policy and returns every violation.
func Password(pw string, attrs UserAttributes) []string {
	var problems []string

	if len([]rune(pw)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if tooSimilar(pw, attrs.Username) {
		problems = append(problems, "The password is too similar to the username.")
	}
	if tooSimilar(pw, attrs.Email) {
		problems = append(problems, "The password is too similar to the email address.")
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(pw))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if pw != "" && isNumeric(pw) {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func tooSimilar(pw, attr string) bool {
	if pw == "" || attr == "" {
		return false
	}
	pw = strings.ToLower(pw)
	attr = strings.ToLower(attr)
	parts := append([]string{attr}, nonWord.Split(attr, -1)...)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if similarity(pw, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// similarity is the Ratcliff/Obershelp ratio 2*M/T, where M counts characters
// in recursively found longest common blocks.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matching(ra, rb)) / float64(total)
}

func matching(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	return size + matching(a[:i], b[:j]) + matching(a[i+size:], b[j+size:])
}

func longestBlock(a, b []rune) (int, int, int) {
	bestI, bestJ, best := 0, 0, 0
	prev := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
					bestI, bestJ = i-best, j-best
				}
			}
		}
		prev = cur
	}
	return bestI, bestJ, best
}

var commonPasswords = func() map[string]struct{} {
	list := []string{
		"123456", "password", "12345678", "qwerty", "123456789", "12345", "1234", "111111",
		"1234567", "dragon", "123123", "baseball", "abc123", "football", "monkey", "letmein",
		"696969", "shadow", "master", "666666", "qwertyuiop", "123321", "mustang", "1234567890",
		"michael", "654321", "superman", "1qaz2wsx", "7777777", "121212", "000000", "qazwsx",
		"123qwe", "killer", "trustno1", "jordan", "jennifer", "zxcvbnm", "asdfgh", "hunter",
		"buster", "soccer", "harley", "batman", "andrew", "tigger", "sunshine", "iloveyou",
		"2000", "charlie", "robert", "thomas", "hockey", "ranger", "daniel", "starwars",
		"klaster", "112233", "george", "computer", "michelle", "jessica", "pepper", "1111",
		"zxcvbn", "555555", "11111111", "131313", "freedom", "777777", "pass", "maggie",
		"159753", "aaaaaa", "ginger", "princess", "joshua", "cheese", "amanda", "summer",
		"love", "ashley", "nicole", "chelsea", "biteme", "matthew", "access", "yankees",
		"987654321", "dallas", "austin", "thunder", "taylor", "matrix", "password1", "password123",
		"welcome", "welcome1", "admin", "admin123", "passw0rd", "qwerty123", "iloveyou1", "football1",
		"abcdef", "abcd1234", "abc12345", "secret", "changeme", "letmein1", "dragon1", "baseball1",
		"sunshine1", "princess1", "trustno1!", "qwertyui", "asdfghjkl", "1q2w3e4r", "1q2w3e", "q1w2e3r4",
	}
	m := make(map[string]struct{}, len(list))
	for _, p := range list {
		m[p] = struct{}{}
	}
	return m
}()
