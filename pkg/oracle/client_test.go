package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNoAnswer(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
	}{
		{"none", true},
		{"None", true},
		{"NONE", true},
		{"  none  ", true},
		{"", false},
		{"nothing", false},
		{"privacy@example.com", false},
		{"none found", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsNoAnswer(tc.answer), tc.answer)
	}
}
