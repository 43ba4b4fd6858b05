package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/sanli-cicek/internal/store"
)

func (s *Server) listProducts(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, err := s.catalog.ListProducts(c.Request.Context(), page, pageSize)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

func (s *Server) getProduct(c *gin.Context) {
	product, err := s.catalog.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, product)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, categories)
}

// listCategoryProducts serves a category page: the category and its active
// products ordered by the sort query parameter.
func (s *Server) listCategoryProducts(c *gin.Context) {
	sort, err := store.ParseProductSort(c.Query("sort"))
	if err != nil {
		respondErr(c, err)
		return
	}
	page, pageSize := pageParams(c)

	ctx := c.Request.Context()
	category, err := s.catalog.GetCategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondErr(c, err)
		return
	}

	products, err := s.catalog.ListProductsByCategory(ctx, category.ID, sort, page, pageSize)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"category": category,
		"sort":     sort,
		"products": products,
	})
}
