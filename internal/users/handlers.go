// Package users exposes account management: admins create, update and
// deactivate accounts; there is no public signup.
package users

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cristian138/th-academy/internal/auth"
	"github.com/cristian138/th-academy/internal/workflow"
	"github.com/cristian138/th-academy/pkg/models"
	"github.com/cristian138/th-academy/pkg/validation"
)

// ===== DTOs =====

type CreateUserRequest struct {
	Email          string `json:"email" validate:"required,email,max=120"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	Name           string `json:"name" validate:"required,min=2,max=120"`
	Role           string `json:"role" validate:"required,role"`
	Identification string `json:"identification" validate:"max=40"`
	Phone          string `json:"phone" validate:"max=30"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
}

type Handler struct {
	engine *workflow.Engine
}

func NewHandler(engine *workflow.Engine) *Handler { return &Handler{engine: engine} }

// Create User godoc
// @Summary      Create user
// @Description  Admin registers a new account
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateUserRequest  true  "User payload"
// @Success      201  {object}  models.User
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "email already registered"
// @Router       /users [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	u, err := h.engine.CreateUser(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), workflow.CreateUserInput{
		Email:          in.Email,
		PasswordHash:   string(hash),
		Name:           strings.TrimSpace(in.Name),
		Role:           models.Role(in.Role),
		Identification: strings.TrimSpace(in.Identification),
		Phone:          strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// List Users godoc
// @Summary      List users
// @Description  Admin lists accounts, optionally filtered by role
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        role  query  string  false  "role filter"
// @Success      200  {array}   models.User
// @Failure      403  {object}  models.ErrorResponse
// @Router       /users [get]
func (h *Handler) List(c *fiber.Ctx) error {
	var role *models.Role
	if v := c.Query("role"); v != "" {
		r := models.Role(v)
		if !r.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown role")
		}
		role = &r
	}
	list, err := h.engine.ListUsers(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), role)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Get User godoc
// @Summary      Get user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "user id"
// @Success      200  {object}  models.User
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	u, err := h.engine.GetUser(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// Update User godoc
// @Summary      Update user
// @Description  Admin updates mutable profile fields
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "user id"
// @Param        payload  body  UpdateUserRequest  true  "Update payload"
// @Success      200  {object}  models.User
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	var in UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	u, err := h.engine.UpdateUser(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id,
		models.UserPatch{Name: in.Name, Phone: in.Phone})
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// Deactivate User godoc
// @Summary      Deactivate user
// @Description  Admin disables an account; collaborators with contracts in progress are refused
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "user id"
// @Success      200  {object}  models.User
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "contracts in progress"
// @Router       /users/{id}/deactivate [post]
func (h *Handler) Deactivate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	u, err := h.engine.DeactivateUser(c.UserContext(), workflow.ActorFrom(auth.MustUser(c)), id)
	if err != nil {
		return err
	}
	return c.JSON(u)
}
