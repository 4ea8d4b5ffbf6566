package model

// Vendor 餐饮商家表，对应 vendors（与 vendor 角色用户 1:1）
type Vendor struct {
	VendorID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"vendor_id"`
	UserID           string  `gorm:"type:uuid;not null"                             json:"user_id"`
	UniversityID     *string `gorm:"type:uuid"                                      json:"university_id,omitempty"`
	BusinessName     string  `gorm:"type:varchar(150);not null"                     json:"business_name"`
	Description      string  `gorm:"type:text"                                      json:"description,omitempty"`
	Location         string  `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Phone            string  `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	IsOpen           bool    `gorm:"not null;default:false"                         json:"is_open"`
	DeliveryFeeMinor int64   `gorm:"not null;default:0"                             json:"delivery_fee_minor"`
	VersionedModel
}

// TableName 指定表名
func (Vendor) TableName() string { return "vendors" }

// FoodItem 菜品表，对应 food_items
type FoodItem struct {
	FoodItemID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"food_item_id"`
	VendorID    string `gorm:"type:uuid;not null"                             json:"vendor_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	Category    string `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	PriceMinor  int64  `gorm:"not null"                                       json:"price_minor"`
	ImageURL    string `gorm:"type:varchar(500)"                              json:"image_url,omitempty"`
	IsAvailable bool   `gorm:"not null;default:true"                          json:"is_available"`
	VersionedModel
}

// TableName 指定表名
func (FoodItem) TableName() string { return "food_items" }
