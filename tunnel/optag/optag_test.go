package optag

import "testing"

func TestRoundTrip(t *testing.T) {
	kinds := []Kind{None, Recv, Send, Read, Write}
	for _, k := range kinds {
		for _, bid := range []uint16{0, 1, 255, 256, 1023, 65535} {
			tag := Encode(k, bid)
			gk, gb := Decode(tag)
			if gk != k || gb != bid {
				t.Fatalf("round trip failed: kind=%v bid=%v -> tag=%#x -> kind=%v bid=%v", k, bid, tag, gk, gb)
			}
		}
	}
}

func TestHighBitsUnobservable(t *testing.T) {
	tag := Encode(Write, 4242)
	for _, garbage := range []uint64{1, 0xFF, 0xDEADBEEF, ^uint64(0)} {
		polluted := tag | (garbage << 24)
		k, b := Decode(polluted)
		if k != Write || b != 4242 {
			t.Fatalf("high bits leaked: garbage=%#x decoded kind=%v bid=%v", garbage, k, b)
		}
	}
}
