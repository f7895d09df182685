// ABOUTME: mDNS service discovery for the siervo web mode
// ABOUTME: Advertises a running web server and browses for others on the LAN
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/siervo-de-dios/siervo-go/internal/version"
)

const (
	// ServiceType is the DNS-SD type of the web chat server
	ServiceType = "_siervo._tcp"

	// SocketPath is advertised in the TXT record
	SocketPath = "/ws"
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo

	seenMu sync.Mutex
	seen   map[string]bool
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name    string
	Host    string
	Port    int
	Path    string
	Version string
}

// URL returns the websocket URL of the server
func (s ServerInfo) URL() string {
	path := s.Path
	if path == "" {
		path = SocketPath
	}
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(s.Host, fmt.Sprint(s.Port)), path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
		seen:    make(map[string]bool),
	}
}

// instanceName returns the advertised name, "siervo-<hostname>" by default
func (m *Manager) instanceName() string {
	if m.config.ServiceName != "" && m.config.ServiceName != "siervo" {
		return m.config.ServiceName
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "siervo"
	}
	return "siervo-" + strings.Split(hostname, ".")[0]
}

// fresh reports whether a server was not delivered before
func (m *Manager) fresh(server *ServerInfo) bool {
	key := net.JoinHostPort(server.Host, fmt.Sprint(server.Port))

	m.seenMu.Lock()
	defer m.seenMu.Unlock()

	if m.seen[key] {
		return false
	}
	m.seen[key] = true
	return true
}

// Advertise advertises the web server via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	name := m.instanceName()
	service, err := mdns.NewMDNSService(
		name,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecord(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", name, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for siervo servers until Stop
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for servers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				server := entryInfo(entry)
				if server == nil || !m.fresh(server) {
					continue
				}

				log.Printf("Discovered server: %s at %s:%d (version %s)", server.Name, server.Host, server.Port, server.Version)

				select {
				case m.servers <- server:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: 3 * time.Second,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
	}
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

func txtRecord() []string {
	return []string{"path=" + SocketPath, "version=" + version.Version}
}

// entryInfo converts a service entry, skipping entries without IPv4
func entryInfo(entry *mdns.ServiceEntry) *ServerInfo {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	info := &ServerInfo{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: SocketPath,
	}
	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			continue
		}
		switch key {
		case "path":
			info.Path = value
		case "version":
			info.Version = value
		}
	}
	return info
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
