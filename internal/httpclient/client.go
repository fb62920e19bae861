// Package httpclient provides a hardened HTTP client for warden's outbound
// calls (time-limit lookup). It guards against redirect loops and, when
// enabled, against requests landing on private address space.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wardenhq/warden/errors"
)

// Options customizes protection behavior.
type Options struct {
	// AllowedSchemes restricts request URL schemes. Default: ["http", "https"].
	AllowedSchemes []string
	// MaxRedirects caps redirect chains. Default: 10.
	MaxRedirects int
	// BlockPrivateIP refuses requests that resolve to private/special
	// address space. Off by default: on-premise deployments routinely
	// reach their control plane over internal addresses.
	BlockPrivateIP bool
}

// Client wraps http.Client with scheme validation and redirect limits.
type Client struct {
	*http.Client
	opts Options
}

// New creates a hardened HTTP client.
func New(timeout time.Duration, opts Options) *Client {
	if len(opts.AllowedSchemes) == 0 {
		opts.AllowedSchemes = []string{"http", "https"}
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = 10
	}

	c := &Client{
		Client: &http.Client{Timeout: timeout},
		opts:   opts,
	}

	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= c.opts.MaxRedirects {
			return errors.Newf("stopped after %d redirects", c.opts.MaxRedirects)
		}
		if err := c.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	if opts.BlockPrivateIP {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		c.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, errors.Wrap(err, "invalid address")
				}
				ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
				if err != nil {
					return nil, errors.Wrap(err, "failed to resolve host")
				}
				for _, ip := range ips {
					if isPrivateIP(ip) {
						return nil, errors.Newf("private IP address blocked: %s", ip)
					}
				}
				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	return c
}

// ValidateURL validates a URL string before creating a request.
func (c *Client) ValidateURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, s := range c.opts.AllowedSchemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.opts.AllowedSchemes)
	}

	if u.Hostname() == "" {
		return errors.New("URL missing hostname")
	}

	if c.opts.BlockPrivateIP {
		if isLocalhost(u.Hostname()) {
			return errors.New("localhost access blocked")
		}
		if ip := net.ParseIP(u.Hostname()); ip != nil && isPrivateIP(ip) {
			return errors.Newf("private IP address blocked: %s", u.Hostname())
		}
	}

	return nil
}

func isLocalhost(hostname string) bool {
	h := strings.ToLower(hostname)
	return h == "localhost" || h == "localhost.localdomain" ||
		strings.HasSuffix(h, ".localhost")
}

// isPrivateIP reports whether ip is in private or special-use ranges.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() || ip.IsMulticast() {
		return true
	}
	// 240.0.0.0/4 reserved block is none of the above
	if ip4 := ip.To4(); ip4 != nil && ip4[0] >= 240 {
		return true
	}
	return false
}
