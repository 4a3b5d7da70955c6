package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(service.State())
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"cities": service.Cities()})
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		q := searchQuery{Text: c.Query("q")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		state, err := service.Search(c.UserContext(), q.Text)
		return respond(c, state, err)
	})

	v1.Post("/locate", func(c *fiber.Ctx) error {
		q, err := parseCoordinatesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		at, err := q.toCoordinates()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		state, err := service.Locate(c.UserContext(), at)
		return respond(c, state, err)
	})

	v1.Post("/confirm", func(c *fiber.Ctx) error {
		state, err := service.Confirm(c.UserContext())
		return respond(c, state, err)
	})

	v1.Post("/cities/:id/select", func(c *fiber.Ctx) error {
		id, err := cityID(c)
		if err != nil {
			return err
		}
		state, err := service.Select(c.UserContext(), id)
		return respond(c, state, err)
	})

	v1.Delete("/cities/:id", func(c *fiber.Ctx) error {
		id, err := cityID(c)
		if err != nil {
			return err
		}
		state, err := service.Delete(c.UserContext(), id)
		return respond(c, state, err)
	})

	v1.Put("/locale", func(c *fiber.Ctx) error {
		q := localeQuery{Lang: c.Query("lang")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		state, err := service.ChangeLanguage(c.UserContext(), q.Lang)
		return respond(c, state, err)
	})

	v1.Put("/network", func(c *fiber.Ctx) error {
		q := flagQuery{Value: c.Query("online")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(service.SetNetwork(q.bool()))
	})

	v1.Get("/preferences/theme", func(c *fiber.Ctx) error {
		dark, err := service.DarkTheme(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read theme preference")
		}
		return c.JSON(fiber.Map{"dark": dark})
	})

	v1.Put("/preferences/theme", func(c *fiber.Ctx) error {
		q := flagQuery{Value: c.Query("dark")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := service.SetDarkTheme(c.UserContext(), q.bool()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save theme preference")
		}
		return c.JSON(fiber.Map{"dark": q.bool()})
	})
}

// respond maps service errors onto HTTP codes. Fetch failures are not errors
// here; they travel in the state's status.
func respond(c *fiber.Ctx, state weather.State, err error) error {
	switch {
	case err == nil:
		return c.JSON(state)
	case errors.Is(err, weather.ErrSuperseded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, weather.ErrUnknownCity):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrNothingToConfirm):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, weather.ErrOffline):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func cityID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid city id")
	}
	return id, nil
}

type searchQuery struct {
	Text string `validate:"max=100"`
}

type localeQuery struct {
	Lang string `validate:"required,max=35"`
}

// flagQuery holds a boolean query parameter.
type flagQuery struct {
	Value string `validate:"required,oneof=true false"`
}

func (f flagQuery) bool() bool { return f.Value == "true" }

// coordinatesQuery holds query parameters for a device position.
type coordinatesQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func (q coordinatesQuery) toCoordinates() (weather.Coordinates, error) {
	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return weather.Coordinates{}, err
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return weather.Coordinates{}, err
	}
	return weather.Coordinates{Lat: lat, Lon: lon}, nil
}

func parseCoordinatesQuery(c *fiber.Ctx) (coordinatesQuery, error) {
	var q coordinatesQuery

	q.Lat = c.Query("lat")
	q.Lon = c.Query("lon")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}
