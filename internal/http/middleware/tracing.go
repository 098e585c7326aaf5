package middleware

import (
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
)

// unobservedPaths are probe and scrape endpoints kept out of traces and
// request metrics.
var unobservedPaths = map[string]bool{
	"/metrics": true,
	"/healthz": true,
	"/health":  true,
}

// Tracing starts a server span per request using the global tracer provider.
func Tracing() fiber.Handler {
	return otelfiber.Middleware(
		otelfiber.WithNext(func(c *fiber.Ctx) bool {
			return unobservedPaths[c.Path()]
		}),
	)
}
