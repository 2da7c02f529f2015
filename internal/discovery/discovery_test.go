package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *mdns.ServiceEntry
		want  Server
		ok    bool
	}{
		{"nil", nil, Server{}, false},
		{"no port", &mdns.ServiceEntry{AddrV4: net.IPv4(10, 0, 0, 2)}, Server{}, false},
		{"no address", &mdns.ServiceEntry{Port: 8080}, Server{}, false},
		{"ipv4", &mdns.ServiceEntry{Name: "studio", AddrV4: net.IPv4(10, 0, 0, 2), Port: 8080},
			Server{Instance: "studio", Addr: "10.0.0.2:8080"}, true},
		{"ipv6", &mdns.ServiceEntry{Name: "lab", AddrV6: net.ParseIP("fe80::1"), Port: 9000},
			Server{Instance: "lab", Addr: "[fe80::1]:9000"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fromEntry(tt.entry)
			if ok != tt.ok || got != tt.want {
				t.Errorf("fromEntry = %+v, %v; want %+v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBrowseExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx, cancel = context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()

	if _, err := Browse(ctx, time.Second); err == nil {
		t.Error("Browse with an expired deadline returned no error")
	}
}
