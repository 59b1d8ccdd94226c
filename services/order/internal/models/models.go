package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartStatus string

const (
	CartStatusActive  CartStatus = "active"
	CartStatusOrdered CartStatus = "ordered"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	Username  string    `gorm:"uniqueIndex;not null"         json:"username"`
	Role      string    `gorm:"type:varchar(16);default:user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"                     json:"id"`
	Name          string          `gorm:"not null"                                 json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"              json:"price"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"                json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null"            json:"user_id"`
	Status    CartStatus `gorm:"type:varchar(16);not null;default:active" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                               json:"id"`
	CartID    uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null"    json:"cart_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null"    json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"                        json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"                        json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"                       json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"                   json:"user_id"`
	CartID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"             json:"cart_id"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"                json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(16);index;not null"            json:"status"`
	ShippingAddress string          `gorm:"type:text"                                  json:"shipping_address"`
	PaymentMethod   string          `gorm:"type:varchar(64)"                           json:"payment_method"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                         json:"items"`
	CreatedAt       time.Time       `gorm:"index"                                      json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of a cart line taken at checkout and never updated.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"          json:"product_id"`
	ProductName string          `gorm:"not null"                    json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error      { newID(&u.ID); return nil }
func (p *Product) BeforeCreate(tx *gorm.DB) error   { newID(&p.ID); return nil }
func (c *Cart) BeforeCreate(tx *gorm.DB) error      { newID(&c.ID); return nil }
func (c *CartItem) BeforeCreate(tx *gorm.DB) error  { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(tx *gorm.DB) error     { newID(&o.ID); return nil }
func (o *OrderItem) BeforeCreate(tx *gorm.DB) error { newID(&o.ID); return nil }

// All lists every table the service provisions, parents first.
func All() []any {
	return []any{&User{}, &Product{}, &Cart{}, &CartItem{}, &Order{}, &OrderItem{}}
}
