package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLicenseHasRemainingTime(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		license License
		want    bool
	}{
		{name: "both clocks live", license: License{ExpiresAt: &future, RemainingMinutes: 10}, want: true},
		{name: "wall clock spent", license: License{ExpiresAt: &past, RemainingMinutes: 10}, want: false},
		{name: "counter spent", license: License{ExpiresAt: &future, RemainingMinutes: 0}, want: false},
		{name: "never activated", license: License{RemainingMinutes: 10}, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.license.HasRemainingTime(now), tt.name)
	}
}

func TestLicenseIsBound(t *testing.T) {
	var l License
	assert.False(t, l.IsBound())

	empty := ""
	l.DeviceFingerprint = &empty
	assert.False(t, l.IsBound())

	fp := "device-fingerprint-1"
	l.DeviceFingerprint = &fp
	assert.True(t, l.IsBound())
}
