package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

func (s *Server) productList(c *gin.Context, list []models.Product, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductList(list))
}

func (s *Server) listProducts(c *gin.Context) {
	list, err := s.svc.Catalog.Products(c.Request.Context())
	s.productList(c, list, err)
}

func (s *Server) featuredProducts(c *gin.Context) {
	list, err := s.svc.Catalog.Featured(c.Request.Context())
	s.productList(c, list, err)
}

func (s *Server) productsByCategory(c *gin.Context) {
	list, err := s.svc.Catalog.ByCategory(c.Request.Context(), c.Param("name"))
	s.productList(c, list, err)
}

func (s *Server) searchProducts(c *gin.Context) {
	list, err := s.svc.Catalog.Search(c.Request.Context(), c.Query("q"))
	s.productList(c, list, err)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Catalog.Product(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (s *Server) listCategories(c *gin.Context) {
	list, err := s.svc.Catalog.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, cat := range list {
		out = append(out, categoryResponse{ID: cat.ID, Name: cat.Name, Description: cat.Description})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := s.svc.Catalog.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(p))
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var req productRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := s.svc.Catalog.UpdateProduct(c.Request.Context(), id, req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (s *Server) listReviews(c *gin.Context) {
	id, ok := s.idParam(c, "productId")
	if !ok {
		return
	}
	list, err := s.svc.Reviews.ForProduct(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]reviewResponse, 0, len(list))
	for i := range list {
		out = append(out, toReviewResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createReview(c *gin.Context) {
	id, ok := s.idParam(c, "productId")
	if !ok {
		return
	}
	var req reviewRequest
	if !s.bind(c, &req) {
		return
	}
	rv, err := s.svc.Reviews.Create(c.Request.Context(), principal(c), id, req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReviewResponse(rv))
}

func (s *Server) deleteReview(c *gin.Context) {
	id, ok := s.idParam(c, "reviewId")
	if !ok {
		return
	}
	if err := s.svc.Reviews.Delete(c.Request.Context(), principal(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}
