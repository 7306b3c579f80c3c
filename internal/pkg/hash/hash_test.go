package hash

import "testing"

func TestNewPasswordFromDriver(t *testing.T) {
	cases := []struct {
		driver  string
		want    any
		wantErr bool
	}{
		{driver: "", want: &Bcrypt{}},
		{driver: "bcrypt", want: &Bcrypt{}},
		{driver: "argon2id", want: &Argon2id{}},
		{driver: "md5", wantErr: true},
	}

	for _, tc := range cases {
		h, err := NewPasswordFromDriver(tc.driver, PasswordOptions{BcryptCost: 4, Pepper: "pep"})
		if tc.wantErr {
			if err == nil {
				t.Errorf("driver %q: expected an error", tc.driver)
			}
			continue
		}
		if err != nil {
			t.Errorf("driver %q: %v", tc.driver, err)
			continue
		}

		switch tc.want.(type) {
		case *Bcrypt:
			if _, ok := h.(*Bcrypt); !ok {
				t.Errorf("driver %q: got %T, want *Bcrypt", tc.driver, h)
			}
		case *Argon2id:
			if _, ok := h.(*Argon2id); !ok {
				t.Errorf("driver %q: got %T, want *Argon2id", tc.driver, h)
			}
		}
	}
}

func TestPasswordHashersRoundTrip(t *testing.T) {
	hashers := map[string]Hash{
		"bcrypt":   NewBcrypt(4, "pep"),
		"argon2id": NewArgon2id("pep"),
		"hmac":     NewHMACSHA256("secret"),
	}

	for name, h := range hashers {
		hashed, err := h.Hash("Secret123!")
		if err != nil {
			t.Fatalf("%s: hash: %v", name, err)
		}
		if !h.Verify(string(hashed), "Secret123!") {
			t.Errorf("%s: correct secret did not verify", name)
		}
		if h.Verify(string(hashed), "Wrong123!") {
			t.Errorf("%s: wrong secret verified", name)
		}
	}
}
