package server

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

const mib = 1024 * 1024

// displayServerInfo prints the route table and the protection settings.
func (s *Server) displayServerInfo() {
	s.writeServerInfo(os.Stdout)
}

func (s *Server) writeServerInfo(out io.Writer) {
	fmt.Fprintln(out, "Available endpoints:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, rt := range s.routes() {
		method, path, _ := strings.Cut(rt.pattern, " ")
		access := "api key"
		if rt.public {
			access = "public"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", method, path, access, rt.description)
	}
	tw.Flush()

	switch {
	case len(s.APIKeys) > 0:
		fmt.Fprintf(out, "API authentication: ENABLED (%d keys)\n", len(s.APIKeys))
	default:
		fmt.Fprintln(out, "API authentication: DISABLED, endpoints are publicly accessible")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(out, "Request size limit: %.1f MB, uploads %.1f MB\n",
			float64(s.MaxRequestSize)/mib, float64(s.MaxUploadSize)/mib)
	} else {
		fmt.Fprintln(out, "Request size limit: DISABLED")
	}

	if s.RateLimit == nil || !s.RateLimit.Enabled {
		fmt.Fprintln(out, "Rate limiting: DISABLED")
		return
	}
	var keys []string
	if s.RateLimit.ByAPIKey {
		keys = append(keys, "api key")
	}
	if s.RateLimit.ByIP {
		keys = append(keys, "ip")
	}
	if len(keys) == 0 {
		keys = append(keys, "nothing")
	}
	fmt.Fprintf(out, "Rate limiting: %d requests/min, burst %d, keyed by %s\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, strings.Join(keys, " then "))
}
