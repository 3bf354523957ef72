// Command testapp runs a standalone upstream application that issues
// redirects, for manual testing of redirect_guard behind Caddy.
// Usage: go run ./cmd/testapp -port 9081
//
// Point a Caddy site with redirect_guard and reverse_proxy at it, then try:
//
//	/user/login?destination=node/1      rewritten to the site
//	/user/login?destination=//evil.com  rejected with 400
//	/redirect?to=https://evil.com/      rejected with 400
//	/trusted?to=https://evil.com/       passes when trust_secret matches
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/philiph/caddy-redirect-guard/internal/adapters/driven/trust"
	"github.com/philiph/caddy-redirect-guard/testfixtures/app"
)

func main() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	port := flag.Int("port", 9081, "Port to listen on")
	secret := flag.String("secret", os.Getenv("REDIRECT_GUARD_SECRET"), "HS256 secret for trusted redirects")
	header := flag.String("trust-header", app.DefaultTrustHeader, "Response header carrying trust assertions")
	flag.Parse()

	opts := []app.Option{app.WithTrustHeader(*header)}
	if *secret != "" {
		signer, err := trust.NewHMACAssertions([]byte(*secret))
		if err != nil {
			log.Fatalf("Failed to create signer: %v", err)
		}
		opts = append(opts, app.WithSigner(signer))
		log.Println("Trusted redirects enabled")
	}

	log.Printf("Test app starting on http://localhost:%d", *port)
	log.Printf("  Login:    http://localhost:%d%s", *port, app.LoginPath)
	log.Printf("  Redirect: http://localhost:%d%s?to=...", *port, app.RedirectPath)
	log.Printf("  Trusted:  http://localhost:%d%s?to=...", *port, app.TrustedPath)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), app.NewHandler(opts...)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
