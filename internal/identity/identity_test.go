package identity

import (
	"context"
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	env := map[string]string{"SHELL": "/bin/zsh"}
	values := map[string]string{
		"user.email":  "dev@example.com\n",
		"github.user": "octocat",
	}
	lookup := func(_ context.Context, key string) (string, error) {
		return values[key], nil
	}

	got := Detect(func(k string) string { return env[k] }, lookup)
	want := Globals{UserShell: "/bin/zsh", GitEmail: "dev@example.com", GitHubUsername: "octocat"}
	if got != want {
		t.Fatalf("Detect() = %+v, want %+v", got, want)
	}
}

func TestDetectFallsBackToUnknown(t *testing.T) {
	lookup := func(_ context.Context, key string) (string, error) {
		if key == "user.email" {
			return "", errors.New("exit status 1")
		}
		return "  ", nil
	}

	got := Detect(func(string) string { return "" }, lookup)
	if got.UserShell != Unknown || got.GitEmail != Unknown || got.GitHubUsername != Unknown {
		t.Fatalf("expected all unknown, got %+v", got)
	}
}

func TestOrUnknown(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", Unknown},
		{"   ", Unknown},
		{"/bin/bash", "/bin/bash"},
		{" x \n", "x"},
	}
	for _, c := range cases {
		if got := orUnknown(c.in); got != c.want {
			t.Fatalf("orUnknown(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
