package activity

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes the tracker to the device: session control, stats
// and the upload of position fixes into feed.
func RegisterRoutes(r fiber.Router, tracker *Tracker, feed *Feed, authMiddleware fiber.Handler) {
	validate := validator.New()

	r.Post("/enable", authMiddleware, func(c *fiber.Ctx) error {
		tracker.EnableTracking()
		return c.JSON(fiber.Map{"tracking": tracker.Tracking()})
	})

	r.Post("/disable", authMiddleware, func(c *fiber.Ctx) error {
		tracker.DisableTracking()
		return c.JSON(fiber.Map{"tracking": tracker.Tracking()})
	})

	r.Post("/sync", authMiddleware, func(c *fiber.Ctx) error {
		res := tracker.SyncNow(c.Context())
		if !res.OK() {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"date":  res.Date,
				"stats": res.Stats,
				"error": res.Err.Error(),
			})
		}
		return c.JSON(res)
	})

	r.Get("/stats", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"tracking": tracker.Tracking(),
			"stats":    tracker.Stats(),
		})
	})

	r.Post("/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req PositionSample
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := feed.Push(c.Context(), req); err != nil {
			return feedError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/errors", authMiddleware, func(c *fiber.Ctx) error {
		var req SensorError
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := feed.Fail(c.Context(), &req); err != nil {
			return feedError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})
}

func feedError(err error) error {
	if errors.Is(err, ErrNotWatching) {
		return fiber.NewError(fiber.StatusConflict, "tracking is not enabled")
	}
	return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
}
