package transport

import "testing"

func TestApplyGainFullVolumeIsNoOp(t *testing.T) {
	samples := []int16{-32768, -100, 0, 100, 32767}
	want := []int16{-32768, -100, 0, 100, 32767}

	applyGain(samples, 100)
	for i := range samples {
		if samples[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestApplyGainScales(t *testing.T) {
	samples := []int16{-200, -1, 0, 1, 200}
	applyGain(samples, 50)

	want := []int16{-100, 0, 0, 0, 100}
	for i := range samples {
		if samples[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestApplyGainClampsNegativeVolume(t *testing.T) {
	samples := []int16{-200, 200}
	applyGain(samples, -10)

	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d = %d, want 0 at negative volume", i, s)
		}
	}
}
