package controllers

import (
	"errors"
	"net/http"

	"github.com/perennia/storefront/app/models"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/pkg/ctx"
	"github.com/perennia/storefront/pkg/middleware"
)

type ProductController struct {
	catalog *services.CatalogService
	reviews *services.ReviewService
	uploads *services.UploadService
}

func NewProductController(catalog *services.CatalogService, reviews *services.ReviewService, uploads *services.UploadService) *ProductController {
	return &ProductController{catalog: catalog, reviews: reviews, uploads: uploads}
}

// Index handles GET /api/products?category=&featured=.
func (c *ProductController) Index(x *ctx.Context) {
	products, err := c.catalog.List(x.Context(), services.ParseListFilter(x.Query("category"), x.Query("featured")))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, products)
}

func (c *ProductController) Show(x *ctx.Context) {
	p, err := c.catalog.Get(x.Context(), x.Param("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, p)
}

func (c *ProductController) Store(x *ctx.Context) {
	var in services.ProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.catalog.Create(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, p)
}

func (c *ProductController) Update(x *ctx.Context) {
	var u models.ProductUpdate
	if !x.BindPatch(&u, "No data to update") {
		return
	}
	p, err := c.catalog.Update(x.Context(), x.Param("id"), u)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, p)
}

func (c *ProductController) Destroy(x *ctx.Context) {
	if err := c.catalog.Delete(x.Context(), x.Param("id")); err != nil {
		x.Fail(err)
		return
	}
	x.Message("Product deleted")
}

func (c *ProductController) Reviews(x *ctx.Context) {
	reviews, err := c.reviews.List(x.Context(), x.Param("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, reviews)
}

func (c *ProductController) StoreReview(x *ctx.Context) {
	var in services.ReviewInput
	if !x.BindJSON(&in) {
		return
	}
	review, err := c.reviews.Create(x.Context(), middleware.UserIDFromCtx(x.Context()), x.Param("id"), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, review)
}

// Upload handles POST /api/admin/uploads with a multipart "file" field.
func (c *ProductController) Upload(x *ctx.Context) {
	x.R.Body = http.MaxBytesReader(x.W, x.R.Body, services.MaxUploadBytes+1<<20)
	file, _, err := x.R.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			x.Error(http.StatusBadRequest, "File too large (max 5 MB)")
			return
		}
		x.Error(http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	res, err := c.uploads.StoreImage(x.Context(), file)
	if err != nil {
		x.Fail(err)
		return
	}
	x.JSON(http.StatusOK, res)
}
