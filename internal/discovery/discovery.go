// Package discovery advertises relay servers on the local network over
// mDNS and finds the ones other machines advertise.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_drawroom._tcp"

// Server is a relay found on the network.
type Server struct {
	Instance string `json:"instance"`
	Addr     string `json:"addr"`
}

type Advertiser struct {
	server *mdns.Server
}

// Advertise announces a relay listening on port until Shutdown is called.
func Advertise(instance string, port int) (*Advertiser, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, []string{"drawroom"})
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}
	slog.Info("advertising relay", "instance", instance, "service", ServiceType, "port", port)
	return &Advertiser{server: server}, nil
}

func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}

// Browse listens for relays for up to timeout, or until ctx is done, and
// returns them sorted by address.
func Browse(ctx context.Context, timeout time.Duration) ([]Server, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	found := make(map[string]Server)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for e := range entries {
			if s, ok := fromEntry(e); ok {
				found[s.Addr] = s
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-collected
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}

	servers := make([]Server, 0, len(found))
	for _, s := range found {
		servers = append(servers, s)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Addr < servers[j].Addr })
	return servers, nil
}

func fromEntry(e *mdns.ServiceEntry) (Server, bool) {
	if e == nil || e.Port == 0 {
		return Server{}, false
	}
	var ip net.IP
	switch {
	case e.AddrV4 != nil:
		ip = e.AddrV4
	case e.AddrV6 != nil:
		ip = e.AddrV6
	default:
		return Server{}, false
	}
	return Server{
		Instance: e.Name,
		Addr:     net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)),
	}, true
}
