package recording

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/deancochran/gradientpeak-sub006/internal/plan"
	"github.com/deancochran/gradientpeak-sub006/internal/sensor"
)

type createRequest struct {
	UserID string `json:"user_id"`
}

type sensorRequest struct {
	Characteristic string `json:"characteristic"`
	Payload        string `json:"payload"` // base64
	DeviceID       string `json:"device_id"`
	TimestampMs    int64  `json:"timestamp_ms"`
}

type planRequest struct {
	Steps []plan.Step `json:"steps"`
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		rec, err := svc.Create(c.Context(), req.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	r.Post("/:id/start", lifecycleHandler(svc.Start))
	r.Post("/:id/pause", lifecycleHandler(svc.Pause))
	r.Post("/:id/resume", lifecycleHandler(svc.Resume))

	r.Post("/:id/finish", func(c *fiber.Ctx) error {
		summary, err := svc.Finish(c.Context(), c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(summary)
	})

	r.Post("/:id/abandon", func(c *fiber.Ctx) error {
		if err := svc.Abandon(c.Context(), c.Params("id")); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/sensor", func(c *fiber.Ctx) error {
		var req sensorRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		payload, err := base64.StdEncoding.DecodeString(req.Payload)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "payload must be base64")
		}
		if err := svc.IngestPayload(c.Params("id"), req.Characteristic, payload, req.DeviceID, req.TimestampMs); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:id/location", func(c *fiber.Ctx) error {
		var loc sensor.Location
		if err := c.BodyParser(&loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.IngestLocation(c.Params("id"), loc); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/:id/snapshot", func(c *fiber.Ctx) error {
		snap, err := svc.Snapshot(c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(snap)
	})

	r.Get("/:id/summary", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(summary)
	})

	r.Post("/:id/plan", func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(req.Steps) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "steps required")
		}
		if err := svc.SelectPlan(c.Params("id"), req.Steps); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Post("/:id/plan/advance", func(c *fiber.Ctx) error {
		if err := svc.AdvancePlan(c.Params("id")); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/plan", func(c *fiber.Ctx) error {
		progress, err := svc.PlanProgress(c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(progress)
	})
}

func lifecycleHandler(fn func(ctx context.Context, id string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := fn(c.Context(), c.Params("id")); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func statusFor(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoPlan):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
