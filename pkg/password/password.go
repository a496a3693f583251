package password

import "golang.org/x/crypto/bcrypt"

// MinLength is the policy floor enforced on new passwords.
const MinLength = 6

// Hash returns the bcrypt hash of a plaintext password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Matches reports whether the plaintext password matches the stored hash.
func Matches(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
