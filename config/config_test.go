package config

import "testing"

func TestParseClientMode(t *testing.T) {
	cfg, err := Parse([]string{
		"-n", "tun0",
		"-m", "1400",
		"-a", "10.0.0.1/24",
		"-c", "203.0.113.5:9000",
		"-p", "198.51.100.1:1080",
		"-r", "3",
		"-e", "5",
	}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IsServer() {
		t.Fatalf("expected client mode")
	}
	if cfg.InterfaceName != "tun0" {
		t.Fatalf("interface name mismatch: %q", cfg.InterfaceName)
	}
	if cfg.MTU != 1400 {
		t.Fatalf("mtu mismatch: %d", cfg.MTU)
	}
	if len(cfg.Proxies) != 1 {
		t.Fatalf("expected one proxy, got %d", len(cfg.Proxies))
	}
	if cfg.ErrorThreshold != 5 {
		t.Fatalf("error threshold mismatch: %d", cfg.ErrorThreshold)
	}
}

func TestParseRejectsBothBindAndConnect(t *testing.T) {
	_, err := Parse([]string{
		"-n", "tun0", "-m", "1400", "-a", "10.0.0.1/24",
		"-b", "0.0.0.0:9000", "-c", "203.0.113.5:9000",
	}, "test")
	if err == nil {
		t.Fatalf("expected error when both -b and -c are set")
	}
}

func TestParseRejectsNeitherBindNorConnect(t *testing.T) {
	_, err := Parse([]string{"-n", "tun0", "-m", "1400", "-a", "10.0.0.1/24"}, "test")
	if err == nil {
		t.Fatalf("expected error when neither -b nor -c is set")
	}
}

func TestParseRejectsOutOfRangeMTU(t *testing.T) {
	_, err := Parse([]string{
		"-n", "tun0", "-m", "40", "-a", "10.0.0.1/24", "-b", "0.0.0.0:9000",
	}, "test")
	if err == nil {
		t.Fatalf("expected error for MTU below 68")
	}
}

func TestParseRepeatableProxyFlag(t *testing.T) {
	cfg, err := Parse([]string{
		"-n", "tun0", "-m", "1400", "-a", "10.0.0.1/24", "-c", "203.0.113.5:9000",
		"-p", "198.51.100.1:1080",
		"-p", "198.51.100.2:1080",
	}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Proxies) != 2 {
		t.Fatalf("expected two proxies, got %d", len(cfg.Proxies))
	}
}
