// Package handlers provides the generic CRUD endpoints every resource is
// built from.
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"eshop/apperr"
	"eshop/query"
	"eshop/store"
	"eshop/validation"

	"github.com/gofiber/fiber/v2"
)

// ScopeFunc derives the equality pre-filter for a request, e.g. the parent
// id of a nested route or the caller for owner-only listings.
type ScopeFunc func(c *fiber.Ctx) (store.Scope, error)

// Builder turns a validated input into the record to persist.
type Builder[I, T any] func(c *fiber.Ctx, in *I) (*T, error)

// Patcher turns a validated partial input into the changes to apply.
type Patcher[I any] func(c *fiber.Ctx, id uint, in *I) (store.Changes, error)

type Resource[T any] struct {
	Name    string
	Repo    *store.Repository[T]
	Present func(*T)
}

func (r *Resource[T]) present(rec *T) {
	if r.Present != nil && rec != nil {
		r.Present(rec)
	}
}

func (r *Resource[T]) notFound(id uint) error {
	return apperr.NotFound("No %s for this id %d", r.Name, id)
}

func (r *Resource[T]) GetOne(scope ScopeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := resolve(c, scope)
		if err != nil {
			return err
		}

		rec, err := r.Repo.FindByID(c.UserContext(), id, s)
		if errors.Is(err, store.ErrNotFound) {
			return r.notFound(id)
		}
		if err != nil {
			return err
		}

		r.present(rec)
		return c.JSON(fiber.Map{"status": "success", "data": rec})
	}
}

func (r *Resource[T]) GetAll(scope ScopeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := resolve(c, scope)
		if err != nil {
			return err
		}

		recs, pagination, err := r.Repo.List(c.UserContext(), s, query.Parse(c.Queries()))
		if err != nil {
			return err
		}
		for i := range recs {
			r.present(&recs[i])
		}

		return c.JSON(fiber.Map{
			"status":     "success",
			"results":    len(recs),
			"pagination": pagination,
			"data":       recs,
		})
	}
}

func (r *Resource[T]) DeleteOne(scope ScopeFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := resolve(c, scope)
		if err != nil {
			return err
		}

		err = r.Repo.Delete(c.UserContext(), id, s)
		if errors.Is(err, store.ErrNotFound) {
			return r.notFound(id)
		}
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{"status": "success", "message": "Document deleted"})
	}
}

func CreateOne[I, T any](r *Resource[T], build Builder[I, T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := Bind[I](c)
		if err != nil {
			return err
		}

		rec, err := build(c, in)
		if err != nil {
			return err
		}
		if err := r.Repo.Create(c.UserContext(), rec); err != nil {
			return err
		}

		r.present(rec)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": rec})
	}
}

func UpdateOne[I, T any](r *Resource[T], patch Patcher[I]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := ParamID(c, "id")
		if err != nil {
			return err
		}
		in, err := Bind[I](c)
		if err != nil {
			return err
		}

		changes, err := patch(c, id, in)
		if err != nil {
			return err
		}

		rec, err := r.Repo.Update(c.UserContext(), id, nil, changes)
		if errors.Is(err, store.ErrNotFound) {
			return r.notFound(id)
		}
		if err != nil {
			return err
		}

		r.present(rec)
		return c.JSON(fiber.Map{"status": "success", "data": rec})
	}
}

// Bind parses the request body (JSON or form) into I and validates it.
func Bind[I any](c *fiber.Ctx) (*I, error) {
	in := new(I)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(in); err != nil {
			return nil, apperr.BadRequest("Invalid request body")
		}
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return in, nil
}

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Field(name, "Invalid "+name+" format")
	}
	return uint(id), nil
}

func resolve(c *fiber.Ctx, scope ScopeFunc) (store.Scope, error) {
	if scope == nil {
		return nil, nil
	}
	return scope(c)
}

// Param builds a scope from a route parameter, used by nested routes.
// Without the parameter the scope is empty.
func Param(param, column string) ScopeFunc {
	return func(c *fiber.Ctx) (store.Scope, error) {
		if c.Params(param) == "" {
			return nil, nil
		}
		id, err := ParamID(c, param)
		if err != nil {
			return nil, err
		}
		return store.Scope{column: id}, nil
	}
}

// LimitBody rejects non-multipart bodies larger than limit bytes. Multipart
// uploads are bounded by the server-wide BodyLimit instead.
func LimitBody(limit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limit > 0 && len(c.Body()) > limit && !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
			return apperr.New(fiber.StatusRequestEntityTooLarge, "Request body too large")
		}
		return c.Next()
	}
}
