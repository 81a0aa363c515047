// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"github.com/Zoharlev/drum-beat-visionary-16th-sub000/pkg/utils"
)

func TestMelScaleRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 440, 1000, 8000, 16000} {
		got := melToHz(hzToMel(hz))
		if math.Abs(got-hz) > 1e-6 {
			t.Errorf("melToHz(hzToMel(%v)) = %v", hz, got)
		}
	}
	if hzToMel(1000) <= hzToMel(100) {
		t.Error("mel scale is not monotonic")
	}
}

func TestNewMelBankValidation(t *testing.T) {
	tests := []struct {
		desc            string
		filters, coeffs int
		wantErr         bool
	}{
		{desc: "default shape", filters: 26, coeffs: 13},
		{desc: "single filter", filters: 1, coeffs: 1, wantErr: true},
		{desc: "zero coefficients", filters: 26, coeffs: 0, wantErr: true},
		{desc: "coefficients exceed filters", filters: 12, coeffs: 13, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := newMelBank(1024, testRate, tt.filters, tt.coeffs)
			if (err != nil) != tt.wantErr {
				t.Errorf("newMelBank error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCepstraSeparateVoices(t *testing.T) {
	e := testExtractor(t, 1024, 13)

	kick, err := e.Extract(testFrame(utils.KickHit(1024, testRate)))
	if err != nil {
		t.Fatalf("Extract(kick): %v", err)
	}
	hat, err := e.Extract(testFrame(utils.ClosedHatHit(1024, testRate)))
	if err != nil {
		t.Fatalf("Extract(hat): %v", err)
	}

	dist := 0.0
	for i := range kick.MFCC {
		d := kick.MFCC[i] - hat.MFCC[i]
		dist += d * d
	}
	dist = math.Sqrt(dist)
	if dist < 1.0 {
		t.Errorf("cepstral distance between kick and hat = %v, want clearly separated", dist)
	}
}
