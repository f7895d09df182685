// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager lifecycle and service entry conversion
package discovery

import (
	"net"
	"strings"
	"testing"

	"github.com/hashicorp/mdns"

	"github.com/siervo-de-dios/siervo-go/internal/version"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "siervo-test",
		Port:        8080,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.ServiceName != "siervo-test" || mgr.config.Port != 8080 {
		t.Errorf("unexpected config %+v", mgr.config)
	}
	if mgr.Servers() == nil {
		t.Error("expected servers channel")
	}

	mgr.Stop()
	select {
	case <-mgr.ctx.Done():
	default:
		t.Error("expected context cancelled after Stop")
	}
}

func TestEntryInfo(t *testing.T) {
	tests := []struct {
		name     string
		entry    *mdns.ServiceEntry
		wantNil  bool
		wantPath string
	}{
		{"nil entry", nil, true, ""},
		{"no ipv4", &mdns.ServiceEntry{Name: "x", Port: 1}, true, ""},
		{
			name:     "default path",
			entry:    &mdns.ServiceEntry{Name: "casa", AddrV4: net.ParseIP("192.168.1.10"), Port: 8080},
			wantPath: "/ws",
		},
		{
			name: "txt path",
			entry: &mdns.ServiceEntry{
				Name:       "iglesia",
				AddrV4:     net.ParseIP("10.0.0.2"),
				Port:       9000,
				InfoFields: []string{"path=/chat", "version=0.1.0"},
			},
			wantPath: "/chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := entryInfo(tt.entry)
			if tt.wantNil {
				if info != nil {
					t.Errorf("expected nil, got %+v", info)
				}
				return
			}
			if info == nil {
				t.Fatal("expected info")
			}
			if info.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", info.Path, tt.wantPath)
			}
			if info.Port != tt.entry.Port || info.Name != tt.entry.Name {
				t.Errorf("unexpected info %+v", info)
			}
		})
	}
}

func TestServerInfoURL(t *testing.T) {
	info := ServerInfo{Host: "192.168.1.10", Port: 8080}
	if got := info.URL(); got != "ws://192.168.1.10:8080/ws" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestTXTRecord(t *testing.T) {
	txt := txtRecord()
	if len(txt) != 2 || txt[0] != "path=/ws" || txt[1] != "version="+version.Version {
		t.Errorf("unexpected TXT record %v", txt)
	}

	info := entryInfo(&mdns.ServiceEntry{Name: "x", AddrV4: net.ParseIP("10.0.0.3"), Port: 1, InfoFields: txt})
	if info.Version != version.Version {
		t.Errorf("version = %q, want %q", info.Version, version.Version)
	}
}

func TestFreshDeduplicates(t *testing.T) {
	mgr := NewManager(Config{})
	defer mgr.Stop()

	a := &ServerInfo{Host: "10.0.0.2", Port: 8080}
	b := &ServerInfo{Host: "10.0.0.2", Port: 8081}

	if !mgr.fresh(a) {
		t.Error("expected first sighting to be fresh")
	}
	if mgr.fresh(&ServerInfo{Host: "10.0.0.2", Port: 8080}) {
		t.Error("expected repeat sighting to be dropped")
	}
	if !mgr.fresh(b) {
		t.Error("expected a different port to be fresh")
	}
}

func TestInstanceName(t *testing.T) {
	if got := NewManager(Config{ServiceName: "capilla"}).instanceName(); got != "capilla" {
		t.Errorf("expected configured name, got %q", got)
	}

	got := NewManager(Config{ServiceName: "siervo"}).instanceName()
	if !strings.HasPrefix(got, "siervo") {
		t.Errorf("expected siervo prefix, got %q", got)
	}
}
