package crc32c

import "testing"

func TestZportalVector(t *testing.T) {
	const want = 0xA9D08DF5
	if got := Checksum([]byte("zportal")); got != want {
		t.Fatalf("Checksum(\"zportal\") = %#x, want %#x", got, want)
	}
	if got := ChecksumSoftware([]byte("zportal")); got != want {
		t.Fatalf("ChecksumSoftware(\"zportal\") = %#x, want %#x", got, want)
	}
}

func TestHardwareSoftwareAgree(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("a"),
		[]byte("zportal"),
		make([]byte, 1500),
		make([]byte, 4096+13),
	}
	for i := range inputs[3] {
		inputs[3][i] = byte(i)
	}
	for i := range inputs[4] {
		inputs[4][i] = byte(i * 7)
	}

	for _, in := range inputs {
		hw := ChecksumHardware(in)
		sw := ChecksumSoftware(in)
		if hw != sw {
			t.Fatalf("hardware/software mismatch for %d bytes: hw=%#x sw=%#x", len(in), hw, sw)
		}
	}
}

func TestDeterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	first := Checksum(data)
	for i := 0; i < 5; i++ {
		if got := Checksum(data); got != first {
			t.Fatalf("non-deterministic checksum: %#x vs %#x", got, first)
		}
	}
}
