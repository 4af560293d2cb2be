package server

import (
	"fmt"

	"resumegrade/internal/utils"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayCredentialInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Printf("Resume grader listening on http://%s:%s\n", displayHost(s.Host), s.Port)
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /                 - Review page")
	fmt.Println("  GET    /api/view         - Current page state")
	fmt.Println("  POST   /api/resume       - Upload a resume (multipart field 'resume')")
	fmt.Println("  POST   /api/reset        - Return to the upload view")
	fmt.Println("  POST   /api/modal/open   - Open the API key dialog")
	fmt.Println("  POST   /api/modal/close  - Close the API key dialog")
	fmt.Println("  POST   /api/credential   - Save the API key")
	fmt.Println("  DELETE /api/credential   - Clear the API key")
	fmt.Println("  GET    /health           - Health check")
	fmt.Println("  GET    /stats            - Server statistics")
}

func (s *Server) displayCredentialInfo() {
	if s.App != nil && s.App.CredentialSet() {
		fmt.Printf("%s API key: configured\n", s.KeyFormat.Label)
	} else {
		fmt.Printf("%s API key: NOT SET (enter it from the page or run 'resumegrade credential set')\n", s.KeyFormat.Label)
	}
}

func (s *Server) displayRequestLimitInfo() {
	fmt.Printf("Upload size limit: %s\n", utils.FormatFileSize(s.MaxFileSize))
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%s)\n", s.MaxRequestSize, utils.FormatFileSize(s.MaxRequestSize))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Upload rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Upload rate limiting: DISABLED")
	}
}

func displayHost(host string) string {
	if host == "" || host == "0.0.0.0" {
		return "localhost"
	}
	return host
}
