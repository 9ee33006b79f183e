package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/home/"},
		{"/notifications/", "/notifications/"},
		{"/?status=new", "/?status=new"},
		{"https://evil.example/", "/home/"},
		{"//evil.example/", "/home/"},
		{"/\\evil.example", "/home/"},
		{"relative/path", "/home/"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeNext(tt.next, "/home/"))
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/users/login/", LoginRedirect("/users/login/", ""))
	assert.Equal(t, "/users/login/?next=%2Fspill%2Fupdate-status%2F", LoginRedirect("/users/login/", "/spill/update-status/"))
}
