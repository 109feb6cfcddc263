package status

import (
	"context"
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// NewApp builds the status endpoint:
//
//	GET /healthz  plain "ok"
//	GET /stats    Snapshot as JSON
func NewApp(stats *Stats) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ez-httpd",
		DisableStartupMessage: true,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(stats.Snapshot())
	})

	return app
}

// Serve runs app on addr until ctx is done. The address is bound before Serve returns on any path,
// and the app has stopped by the time it does.
func Serve(ctx context.Context, addr string, app *fiber.App, logger zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status: listen: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- app.Listener(ln)
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("status endpoint listening")

	select {
	case <-ctx.Done():
		err := app.Shutdown()
		// Shutdown only closes listeners the app has started accepting on.
		ln.Close()
		<-errc
		return err
	case err := <-errc:
		ln.Close()
		return err
	}
}
