package tokeninfo

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestInspect(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token := sign(t, jwt.MapClaims{
		"sub": "42",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	info := Inspect(token)
	if !info.JWT || info.Subject != "42" {
		t.Fatalf("info = %+v", info)
	}
	if !info.IssuedAt.Equal(now) || !info.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("times = %v / %v", info.IssuedAt, info.ExpiresAt)
	}
	if info.Expired(now) || info.Remaining(now) != time.Hour {
		t.Fatalf("Expired=%v Remaining=%v", info.Expired(now), info.Remaining(now))
	}
	if !info.Expired(now.Add(2*time.Hour)) || info.Remaining(now.Add(2*time.Hour)) != 0 {
		t.Fatal("token not expired two hours later")
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	info := Inspect("tok")
	if info.JWT || info.Expired(time.Now()) || info.Remaining(time.Now()) != 0 {
		t.Fatalf("info = %+v", info)
	}
}
