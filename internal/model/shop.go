package model

import "time"

// Shop 校园商城店铺，对应 shops
type Shop struct {
	ShopID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shop_id"`
	OwnerID      string  `gorm:"type:uuid;not null"                             json:"owner_id"`
	UniversityID *string `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	Name         string  `gorm:"type:varchar(150);not null"                     json:"name"`
	Description  string  `gorm:"type:text"                                      json:"description,omitempty"`
	Category     string  `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	IsOpen       bool    `gorm:"not null;default:true"                          json:"is_open"`
	VersionedModel

	// 关联
	Items []ShopItem `gorm:"foreignKey:ShopID" json:"items,omitempty"`
}

// TableName 指定表名
func (Shop) TableName() string { return "shops" }

// ShopItem 店铺商品，对应 shop_items
type ShopItem struct {
	ShopItemID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shop_item_id"`
	ShopID      string `gorm:"type:uuid;not null"                             json:"shop_id"`
	Name        string `gorm:"type:varchar(150);not null"                     json:"name"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	PriceMinor  int64  `gorm:"not null"                                       json:"price_minor"`
	Stock       int    `gorm:"not null;default:0"                             json:"stock"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (ShopItem) TableName() string { return "shop_items" }

// ShopOrder 商城订单，对应 shop_orders
type ShopOrder struct {
	ShopOrderID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shop_order_id"`
	BuyerID          string `gorm:"type:uuid;not null"                             json:"buyer_id"`
	ShopID           string `gorm:"type:uuid;not null"                             json:"shop_id"`
	Status           string `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Fulfilment       string `gorm:"type:varchar(20);not null;default:'pickup'"     json:"fulfilment"`
	DeliveryAddress  string `gorm:"type:varchar(300)"                              json:"delivery_address,omitempty"`
	Note             string `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	SubtotalMinor    int64  `gorm:"not null"                                       json:"subtotal_minor"`
	DeliveryFeeMinor int64  `gorm:"not null;default:0"                             json:"delivery_fee_minor"`
	ServiceFeeMinor  int64  `gorm:"not null;default:0"                             json:"service_fee_minor"`
	TotalMinor       int64  `gorm:"not null"                                       json:"total_minor"`
	OrderTimestamps
	VersionedModel

	// 关联
	Items []ShopOrderItem `gorm:"foreignKey:ShopOrderID"              json:"items,omitempty"`
	Shop  *Shop           `gorm:"foreignKey:ShopID;references:ShopID" json:"shop,omitempty"`
}

// TableName 指定表名
func (ShopOrder) TableName() string { return "shop_orders" }

// ShopOrderItem 商城订单明细，对应 shop_order_items
type ShopOrderItem struct {
	ShopOrderItemID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shop_order_item_id"`
	ShopOrderID     string    `gorm:"type:uuid;not null"                             json:"shop_order_id"`
	ShopItemID      string    `gorm:"type:uuid;not null"                             json:"shop_item_id"`
	Name            string    `gorm:"type:varchar(150);not null"                     json:"name"`
	UnitPriceMinor  int64     `gorm:"not null"                                       json:"unit_price_minor"`
	Quantity        int       `gorm:"not null"                                       json:"quantity"`
	LineTotalMinor  int64     `gorm:"not null"                                       json:"line_total_minor"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ShopOrderItem) TableName() string { return "shop_order_items" }
