package wire

import "testing"

func TestEnvelopeCleanSetsMagic(t *testing.T) {
	var e Envelope
	e.SetFlags(0xDEAD)
	e.SetSize(7)
	e.SetChecksum(0xA9D08DF5)
	e.Clean()

	if !e.Valid() {
		t.Fatalf("expected magic to be valid after Clean")
	}
	if e.GetFlags() != 0 || e.GetSize() != 0 || e.GetChecksum() != 0 {
		t.Fatalf("Clean left stale fields: %+v", e)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	cases := []struct{ flags, size, crc uint32 }{
		{0, 0, 0},
		{1, 1500, 0xA9D08DF5},
		{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
	}
	for _, c := range cases {
		var e Envelope
		e.SetMagic(Magic)
		e.SetFlags(c.flags)
		e.SetSize(c.size)
		e.SetChecksum(c.crc)

		if e.GetMagic() != Magic {
			t.Fatalf("magic mismatch")
		}
		if e.GetFlags() != c.flags {
			t.Fatalf("flags round-trip failed: got %x want %x", e.GetFlags(), c.flags)
		}
		if e.GetSize() != c.size {
			t.Fatalf("size round-trip failed: got %x want %x", e.GetSize(), c.size)
		}
		if e.GetChecksum() != c.crc {
			t.Fatalf("checksum round-trip failed: got %x want %x", e.GetChecksum(), c.crc)
		}
		if e[0] != 0x5A || e[1] != 0x50 || e[2] != 0x52 || e[3] != 0x54 {
			t.Fatalf("magic bytes not big-endian 0x5A505254: % x", e[0:4])
		}
	}
}
