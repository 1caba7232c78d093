package rest

import (
	"time"

	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/services"
	"github.com/shopspring/decimal"
)

// money is a decimal that is written as a bare JSON number. It accepts both
// numbers and numeric strings on input.
type money struct {
	decimal.Decimal
}

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type jwtResponse struct {
	Token        string   `json:"token"`
	Type         string   `json:"type"`
	ID           int64    `json:"id"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Country      string   `json:"country"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Gender       string   `json:"gender"`
	ProfileImage string   `json:"profileImage"`
	Roles        []string `json:"roles"`
}

func toJWTResponse(s *services.Session) jwtResponse {
	u := s.User
	return jwtResponse{
		Token:        s.Token,
		Type:         "Bearer",
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Phone:        u.Phone,
		Country:      u.Country,
		City:         u.City,
		Address:      u.Address,
		Gender:       u.Gender,
		ProfileImage: u.ProfileImage,
		Roles:        u.Roles.Names(),
	}
}

type signUpRequest struct {
	Email        string   `json:"email" binding:"required,email"`
	Username     string   `json:"username"`
	Password     string   `json:"password" binding:"required,min=6"`
	FirstName    string   `json:"firstName" binding:"required"`
	LastName     string   `json:"lastName" binding:"required"`
	Phone        string   `json:"phone"`
	Country      string   `json:"country"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Gender       string   `json:"gender"`
	ProfileImage string   `json:"profileImage"`
	Role         []string `json:"role"`
}

func (r signUpRequest) input() services.SignUpInput {
	return services.SignUpInput{
		Email:     r.Email,
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Profile: models.Profile{
			Phone:        r.Phone,
			Country:      r.Country,
			City:         r.City,
			Address:      r.Address,
			Gender:       r.Gender,
			ProfileImage: r.ProfileImage,
		},
		Roles: r.Role,
	}
}

type userResponse struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Phone        string    `json:"phone"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Address      string    `json:"address"`
	Gender       string    `json:"gender"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	Roles        []string  `json:"roles"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Name:         u.Name,
		Surname:      u.Surname,
		Phone:        u.Phone,
		Country:      u.Country,
		City:         u.City,
		Address:      u.Address,
		Gender:       u.Gender,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
		Roles:        u.Roles.Names(),
	}
}

// profileResponse is a user plus, after an email change, the new token.
type profileResponse struct {
	userResponse
	Token string `json:"token,omitempty"`
}

type profileUpdateRequest struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Username     *string `json:"username"`
	Phone        *string `json:"phone"`
	Country      *string `json:"country"`
	City         *string `json:"city"`
	Address      *string `json:"address"`
	Gender       *string `json:"gender"`
	ProfileImage *string `json:"profileImage"`
}

func (r profileUpdateRequest) update() services.ProfileUpdate {
	return services.ProfileUpdate{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Username:     r.Username,
		Phone:        r.Phone,
		Country:      r.Country,
		City:         r.City,
		Address:      r.Address,
		Gender:       r.Gender,
		ProfileImage: r.ProfileImage,
	}
}

type changePasswordRequest struct {
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
	ConfirmPassword *string `json:"confirmPassword"`
}

type rolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

type uploadResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type categoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type productRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Price         money  `json:"price" binding:"gte=0"`
	StockQuantity int    `json:"stockQuantity" binding:"gte=0"`
	ImageURL      string `json:"imageUrl"`
	Category      string `json:"category" binding:"required"`
	Brand         string `json:"brand"`
	Featured      bool   `json:"featured"`
}

func (r productRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price.Decimal,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
		Category:      r.Category,
		Brand:         r.Brand,
		Featured:      r.Featured,
	}
}

type productResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         money     `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	ImageURL      string    `json:"imageUrl"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         money{p.Price},
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Category:      p.Category,
		Brand:         p.Brand,
		Featured:      p.Featured,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductList(list []models.Product) []productResponse {
	out := make([]productResponse, 0, len(list))
	for i := range list {
		out = append(out, toProductResponse(&list[i]))
	}
	return out
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

func (r reviewRequest) input() services.ReviewInput {
	return services.ReviewInput{Rating: r.Rating, Title: r.Title, Comment: r.Comment}
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(r *models.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.AuthorName,
		Rating:    r.Rating,
		Title:     r.Title,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type orderItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type orderRequest struct {
	Items           []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress string             `json:"shippingAddress" binding:"required"`
	Phone           string             `json:"phone"`
	PaymentMethod   string             `json:"paymentMethod"`
}

func (r orderRequest) input() services.OrderInput {
	in := services.OrderInput{
		ShippingAddress: r.ShippingAddress,
		Phone:           r.Phone,
		PaymentMethod:   r.PaymentMethod,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return in
}

type orderItemResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Price       money  `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    money  `json:"subtotal"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"userId"`
	OrderDate       time.Time           `json:"orderDate"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Status          string              `json:"status"`
	TotalAmount     money               `json:"totalAmount"`
	PaymentID       string              `json:"paymentId"`
	ShippingAddress string              `json:"shippingAddress"`
	Phone           string              `json:"phone"`
	PaymentMethod   string              `json:"paymentMethod"`
	OrderItems      []orderItemResponse `json:"orderItems"`
}

func toOrderResponse(o *models.Order) orderResponse {
	out := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderDate:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Status:          string(o.Status),
		TotalAmount:     money{o.Total},
		PaymentID:       o.PaymentID,
		ShippingAddress: o.ShippingAddress,
		Phone:           o.Phone,
		PaymentMethod:   o.PaymentMethod,
		OrderItems:      make([]orderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		out.OrderItems = append(out.OrderItems, orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       money{it.UnitPrice},
			Quantity:    it.Quantity,
			Subtotal:    money{it.Subtotal()},
		})
	}
	return out
}

func toOrderList(list []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, toOrderResponse(&list[i]))
	}
	return out
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type paymentRequest struct {
	Amount money `json:"amount" binding:"required,gt=0"`
}

type paymentResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId"`
	Amount    money  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}
