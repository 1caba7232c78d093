package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createOrder(c *gin.Context) {
	var req orderRequest
	if !s.bind(c, &req) {
		return
	}
	o, err := s.svc.Orders.Create(c.Request.Context(), principal(c), req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (s *Server) myOrders(c *gin.Context) {
	list, err := s.svc.Orders.Mine(c.Request.Context(), principal(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(list))
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	o, err := s.svc.Orders.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (s *Server) allOrders(c *gin.Context) {
	list, err := s.svc.Orders.All(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(list))
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := s.idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !s.bind(c, &req) {
		return
	}
	o, err := s.svc.Orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (s *Server) processPayment(c *gin.Context) {
	var req paymentRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.svc.Payments.Process(c.Request.Context(), principal(c), req.Amount.Decimal)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{
		Success:   res.Success,
		PaymentID: res.PaymentID,
		Amount:    money{res.Amount},
		Currency:  res.Currency,
		Status:    res.Status,
		Message:   "Payment processed successfully",
	})
}

func (s *Server) paymentConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publishableKey": s.svc.Payments.PublishableKey()})
}
