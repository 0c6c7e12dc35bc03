package handlers

import (
	"log/slog"

	"github.com/andesco/divproxy/pkg/proxylib"

	"github.com/gofiber/fiber/v2"
)

// ProxySite is a Fiber handler that relays every request to the proxy's
// upstream and answers with the filtered body.
func ProxySite(p *proxylib.Proxy, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// OriginalURL is the raw path-and-query, before any routing rewrites.
		res, err := p.ProcessRequest(c.UserContext(), c.OriginalURL())
		if err != nil {
			logger.Error("proxy request failed", "path", c.OriginalURL(), "err", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}

		if res.ContentType != "" {
			c.Set(fiber.HeaderContentType, res.ContentType)
		} else {
			c.Response().Header.SetNoDefaultContentType(true)
		}
		return c.SendString(res.Body)
	}
}
