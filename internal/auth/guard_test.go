package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		loggedIn, resolving bool
		want                Decision
	}{
		{false, true, DecisionLoading},
		{true, true, DecisionLoading},
		{true, false, DecisionAllow},
		{false, false, DecisionRedirect},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.loggedIn, tt.resolving))
		})
	}
}

func TestNav(t *testing.T) {
	out := Nav(false)
	assert.Len(t, out, 1)
	assert.Equal(t, "/", out[0].Path)
	assert.Len(t, Nav(true), 6)
}
