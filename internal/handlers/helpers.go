package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/middleware"
	"github.com/anonto42/socials/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps a service error onto an HTTP error. Internal failures are
// logged and reported with a generic message.
func respondError(err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return he
	}
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Errorf("internal error: %+v", err)
	}
	return echo.NewHTTPError(apperr.HTTPStatus(kind), apperr.Message(err))
}

// HTTPErrorHandler renders every error as {"success": false, "message": ...}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		he = respondError(err).(*echo.HTTPError)
	}
	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(he.Code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, echo.Map{"success": false, "message": message})
	}
	if err != nil {
		log.Errorf("write error response: %v", err)
	}
}

func getUserIDFromContext(c echo.Context) (primitive.ObjectID, error) {
	return middleware.CurrentUserID(c)
}

func paramObjectID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("Invalid " + name + ".")
	}
	return id, nil
}

func paramUint(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.BadRequest("Invalid " + name + ".")
	}
	return uint(n), nil
}

// pageFromQuery reads limit and offset. skip is accepted as an alias of offset.
func pageFromQuery(c echo.Context) services.Page {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	offset, err := strconv.ParseInt(c.QueryParam("offset"), 10, 64)
	if err != nil {
		offset, _ = strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	}
	return services.Page{Limit: limit, Offset: offset}.Normalized()
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// formFiles reads every file posted under field. A request without a
// multipart body yields no files.
func formFiles(c echo.Context, field string) ([]media.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, apperr.BadRequest("Invalid multipart form.")
	}
	return media.ReadFiles(form.File[field])
}

// formFile reads at most one file posted under field.
func formFile(c echo.Context, field string) (*media.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, apperr.BadRequest("Invalid multipart form.")
	}
	files, err := media.ReadFiles([]*multipart.FileHeader{fh})
	if err != nil {
		return nil, err
	}
	return &files[0], nil
}

func ok(c echo.Context, status int, message string, data interface{}) error {
	body := echo.Map{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	return c.JSON(status, body)
}
