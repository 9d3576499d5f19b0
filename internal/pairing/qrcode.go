// Package pairing renders the served site's address as a QR code so a phone
// on the same network can open the page and receive reloads too.
package pairing

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRGenerator builds the page URL and encodes it as a QR code.
type QRGenerator struct {
	host        string
	port        int
	page        string
	externalURL string // Optional: public URL used instead of host:port
}

// NewQRGenerator creates a generator for a server bound to host:port.
func NewQRGenerator(host string, port int) *QRGenerator {
	return &QRGenerator{host: host, port: port}
}

// SetExternalURL makes the QR code point at a LAN or tunnel URL instead of
// the bind address.
func (g *QRGenerator) SetExternalURL(u string) {
	g.externalURL = strings.TrimRight(u, "/")
}

// SetPage sets the root-relative page to open, e.g. "index.html".
func (g *QRGenerator) SetPage(page string) {
	g.page = strings.TrimLeft(page, "/")
}

// URL returns the address encoded in the QR code. A wildcard or loopback
// bind host is replaced by the machine's LAN address when one is found,
// since a phone cannot reach 127.0.0.1 on the workstation.
func (g *QRGenerator) URL() string {
	base := g.externalURL
	if base == "" {
		host := g.host
		if needsLANAddress(host) {
			if ip := LocalIP(); ip != "" {
				host = ip
			}
		}
		base = "http://" + net.JoinHostPort(host, strconv.Itoa(g.port))
	}
	return base + "/" + g.page
}

func needsLANAddress(host string) bool {
	switch host {
	case "", "0.0.0.0", "::", "localhost":
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// LocalIP returns the first non-loopback IPv4 address of this machine, or
// an empty string.
func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// GenerateTerminal generates a QR code for terminal display.
func (g *QRGenerator) GenerateTerminal() (string, error) {
	qr, err := qrcode.New(g.URL(), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return qr.ToSmallString(false), nil
}

// GeneratePNG generates a PNG image of the QR code.
func (g *QRGenerator) GeneratePNG(size int) ([]byte, error) {
	return qrcode.Encode(g.URL(), qrcode.Medium, size)
}

// Fprint writes the QR code and its URL to w with an indent.
func (g *QRGenerator) Fprint(w io.Writer) error {
	qrStr, err := g.GenerateTerminal()
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Open on your phone: %s\n", g.URL())
	fmt.Fprintln(w)
	for _, line := range strings.Split(qrStr, "\n") {
		if line != "" {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w)
	return nil
}
