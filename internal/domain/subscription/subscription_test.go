package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		raw  string
		want Tier
	}{
		{"PRO", TierPro},
		{"pro", TierPro},
		{" basic ", TierBasic},
		{"PREMIUM", TierPremium},
		{"FREE", TierFree},
		{"", TierFree},
		{"enterprise", TierFree},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTier(tt.raw), "raw=%q", tt.raw)
	}
}
