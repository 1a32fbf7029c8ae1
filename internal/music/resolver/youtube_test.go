package resolver

import (
	"context"
	"errors"
	"testing"
)

func TestIsVideoURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"never gonna give you up", false},
		{"https://example.com/watch?v=abc", false},
	}
	for _, tc := range cases {
		if got := isVideoURL(tc.in); got != tc.want {
			t.Errorf("isVideoURL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCleanVideoURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&index=4&t=42s",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			"https://youtu.be/dQw4w9WgXcQ?t=42",
			"https://youtu.be/dQw4w9WgXcQ",
		},
		{
			"https://music.youtube.com/watch?v=dQw4w9WgXcQ&feature=share",
			"https://music.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			"https://example.com/watch?v=abc",
			"https://example.com/watch?v=abc",
		},
	}
	for _, tc := range cases {
		if got := cleanVideoURL(tc.in); got != tc.want {
			t.Errorf("cleanVideoURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveRejectsEmptyQuery(t *testing.T) {
	r := NewYouTube()
	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := r.Resolve(context.Background(), q, "U1"); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Resolve(%q) = %v, want ErrEmptyQuery", q, err)
		}
	}
}
