package adminauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	cases := []struct {
		name   string
		header string
		token  string
		want   bool
	}{
		{"match", "Bearer s3cret", "s3cret", true},
		{"scheme is case insensitive", "bearer s3cret", "s3cret", true},
		{"formatted by Header", Header("s3cret"), "s3cret", true},
		{"wrong token", "Bearer nope", "s3cret", false},
		{"prefix of token", "Bearer s3c", "s3cret", false},
		{"basic scheme", "Basic s3cret", "s3cret", false},
		{"missing header", "", "s3cret", false},
		{"no token configured", "Bearer ", "", false},
		{"no token configured with header", "Bearer anything", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Check(tc.header, tc.token))
		})
	}
}
