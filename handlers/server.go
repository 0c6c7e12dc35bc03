package handlers

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/andesco/divproxy/pkg/proxylib"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the Fiber application serving the proxy on every path and
// method. accessLog enables the request logger middleware.
func NewApp(p *proxylib.Proxy, log *slog.Logger, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "divproxy",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${url} ${latency}\n",
		}))
	}

	app.All("/*", ProxySite(p, log))
	return app
}

// Addr formats the listen address for host and port.
func Addr(host string, port int) (string, error) {
	if port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
