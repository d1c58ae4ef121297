package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLicenseStateAt(t *testing.T) {
	license := License{Active: true, StartTime: 100, EndTime: 200}

	tests := []struct {
		name  string
		now   int64
		state LicenseState
	}{
		{"before start", 99, LicenseStateCreated},
		{"at start", 100, LicenseStateActive},
		{"inside window", 150, LicenseStateActive},
		{"at end", 200, LicenseStateActive},
		{"after end", 201, LicenseStateExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, license.StateAt(tt.now))
			assert.Equal(t, tt.state == LicenseStateActive, license.ValidAt(tt.now))
		})
	}
}

func TestTerminatedLicenseIsNeverValid(t *testing.T) {
	license := License{Active: false, StartTime: 100, EndTime: 200}

	for _, now := range []int64{50, 150, 250} {
		assert.Equal(t, LicenseStateTerminated, license.StateAt(now))
		assert.False(t, license.ValidAt(now))
	}
}
