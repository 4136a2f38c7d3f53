package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fanreg/internal/identity"
	"fanreg/internal/model"
	"fanreg/internal/service"
)

// registerTimeout bounds one full pipeline run (normalization plus up to two
// oracle calls). The pipeline itself imposes no deadline; the transport
// binding owns it.
const registerTimeout = 90 * time.Second

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateRegistration accepts the fan registration form (multipart/form-data)
// and runs it through the validation pipeline.
func CreateRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := model.RegistrationInput{
			Nome:       c.FormValue("nome"),
			Email:      c.FormValue("email"),
			Endereco:   c.FormValue("endereco"),
			CPF:        c.FormValue("cpf"),
			Atividade:  c.FormValue("atividade"),
			Evento:     c.FormValue("evento"),
			Compra:     c.FormValue("compra"),
			PerfilLink: c.FormValue("perfil_link"),
		}
		if in.Nome == "" || in.Email == "" || in.CPF == "" {
			return writeError(c, fiber.StatusBadRequest, "MISSING_FIELDS", "nome, email and cpf are required")
		}

		if form, err := c.MultipartForm(); err == nil && form != nil {
			in.Interesses = form.Value["interesses"]
		}

		if fh, err := c.FormFile("documento"); err == nil && fh != nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
			}
			in.Documento = &model.Upload{Filename: fh.Filename, Data: data}
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), registerTimeout)
		defer cancel()

		res, err := svc.Register(ctx, in)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidIdentifier) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_CPF", "cpf must contain exactly 11 digits")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GetRegistration returns a stored registration by ID, with the CPF masked
// for display.
func GetRegistration(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		reg, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "registration not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		reg.CPF = identity.Mask(reg.CPF)
		return c.JSON(reg)
	}
}

// GetRegistrationDocument redirects to a time-limited download URL for the
// archived original upload.
func GetRegistrationDocument(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.DocumentURL(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "registration not found")
			}
			if errors.Is(err, service.ErrNoDocument) {
				return writeError(c, fiber.StatusNotFound, "NO_DOCUMENT", "registration has no archived document")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Redirect(url, fiber.StatusFound)
	}
}

// ListRegistrations returns registrations with limit & offset, CPFs masked.
func ListRegistrations(svc service.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		for i := range res.Items {
			res.Items[i].CPF = identity.Mask(res.Items[i].CPF)
		}
		return c.JSON(res)
	}
}
