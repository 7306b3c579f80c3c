package hash

import "fmt"

// PasswordOptions carries the settings for every supported password hasher.
type PasswordOptions struct {
	BcryptCost int
	Pepper     string
}

// NewPasswordFromDriver selects a password hasher implementation by name.
// Supported drivers: "bcrypt" (default) and "argon2id".
func NewPasswordFromDriver(driver string, opts PasswordOptions) (Hash, error) {
	switch driver {
	case "", "bcrypt":
		return NewBcrypt(opts.BcryptCost, opts.Pepper), nil
	case "argon2id":
		return NewArgon2id(opts.Pepper), nil
	default:
		return nil, fmt.Errorf("hash: unsupported password hash driver %q", driver)
	}
}
