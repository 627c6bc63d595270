package tracking

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// RegisterRoutes serves the remote store the tracker syncs to.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	validate := validator.New()

	r.Get("/activity/today", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		date, err := dateParam(c)
		if err != nil {
			return err
		}
		stats, err := svc.Today(c.Context(), userID, date)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(stats)
	})

	r.Post("/activity/sync", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		var req StatsSync
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.SyncDaily(c.Context(), userID, req); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/routes", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		var req RouteSave
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		route, err := svc.SaveRoute(c.Context(), userID, req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(route)
	})

	r.Get("/routes", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		date, err := dateParam(c)
		if err != nil {
			return err
		}
		routes, err := svc.Routes(c.Context(), userID, date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if routes == nil {
			routes = []Route{}
		}
		return c.JSON(routes)
	})

	r.Get("/routes/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		route, err := svc.Route(c.Context(), userID, c.Params("id"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(route)
	})

	r.Get("/routes/:id/summary", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}
		summary, err := svc.Summary(c.Context(), userID, c.Params("id"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(summary)
	})
}

func currentUser(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing user")
	}
	return userID, nil
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to the server's today.
func dateParam(c *fiber.Ctx) (string, error) {
	date := c.Query("date")
	if date == "" {
		return time.Now().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return date, nil
}

func storeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
