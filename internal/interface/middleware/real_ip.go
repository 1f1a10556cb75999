package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// peerIP is the address of the directly connected hop.
func peerIP(c *gin.Context) net.IP {
	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return net.ParseIP(host)
}

func isInternal(ip net.IP) bool {
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}

// RealIP stores the client address under "real_ip". CF-Connecting-IP and the
// left-most X-Forwarded-For entry are honoured only when the request arrives
// from a loopback or private peer such as the load balancer.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if isInternal(peerIP(c)) {
			if cf := net.ParseIP(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); cf != nil {
				ip = cf.String()
			} else if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if fwd := net.ParseIP(strings.TrimSpace(first)); fwd != nil {
					ip = fwd.String()
				}
			}
		}
		c.Set("real_ip", ip)
		c.Next()
	}
}

// AllowPrivateIP bypasses rate limits for loopback and private clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return isInternal(net.ParseIP(ipFromCtx(c)))
	}
}
