package dto

// ── 餐饮 / 商城 / 洗衣 DTO ──

// UpsertVendorRequest 创建或更新商家档案
type UpsertVendorRequest struct {
	BusinessName     string `json:"business_name"      binding:"required,min=2,max=150"`
	Description      string `json:"description"        binding:"omitempty,max=2000"`
	Location         string `json:"location"           binding:"omitempty,max=200"`
	Phone            string `json:"phone"              binding:"omitempty,max=30"`
	IsOpen           *bool  `json:"is_open"`
	DeliveryFeeMinor *int64 `json:"delivery_fee_minor" binding:"omitempty,min=0"`
}

// VendorListRequest 商家列表查询参数
type VendorListRequest struct {
	UniversityID string `form:"university_id" binding:"omitempty,uuid"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
}

// CreateFoodItemRequest 新增菜品
type CreateFoodItemRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	Category    string `json:"category"    binding:"omitempty,max=50"`
	PriceMinor  int64  `json:"price_minor" binding:"required,min=1"`
	ImageURL    string `json:"image_url"   binding:"omitempty,url,max=500"`
	IsAvailable *bool  `json:"is_available"`
}

// UpdateFoodItemRequest 修改菜品
type UpdateFoodItemRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Category    *string `json:"category"    binding:"omitempty,max=50"`
	PriceMinor  *int64  `json:"price_minor" binding:"omitempty,min=1"`
	ImageURL    *string `json:"image_url"   binding:"omitempty,max=500"`
	IsAvailable *bool   `json:"is_available"`
}

// FoodCartLine 餐饮购物车行
type FoodCartLine struct {
	FoodItemID string `json:"food_item_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity"     binding:"required"`
}

// ShopCartLine 商城购物车行
type ShopCartLine struct {
	ShopItemID string `json:"shop_item_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity"     binding:"required"`
}

// CheckoutRequest 餐饮下单请求
type CheckoutRequest struct {
	VendorID        string         `json:"vendor_id"        binding:"required,uuid"`
	Items           []FoodCartLine `json:"items"            binding:"required,dive"`
	Fulfilment      string         `json:"fulfilment"       binding:"omitempty,oneof=pickup delivery"`
	DeliveryAddress string         `json:"delivery_address" binding:"omitempty,max=300"`
	Note            string         `json:"note"             binding:"omitempty,max=500"`
}

// OrderStatusRequest 订单状态变更请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// OrderListRequest 订单列表查询参数
type OrderListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,max=20"`
}

// CreateShopRequest 创建店铺
type CreateShopRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=150"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Category    string `json:"category"    binding:"omitempty,max=50"`
	IsOpen      *bool  `json:"is_open"`
}

// UpdateShopRequest 修改店铺
type UpdateShopRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=150"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Category    *string `json:"category"    binding:"omitempty,max=50"`
	IsOpen      *bool   `json:"is_open"`
}

// ShopListRequest 店铺检索参数
type ShopListRequest struct {
	PaginationRequest
	UniversityID string `form:"university_id" binding:"omitempty,uuid"`
	Category     string `form:"category"      binding:"omitempty,max=50"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
}

// CreateShopItemRequest 新增商品
type CreateShopItemRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=150"`
	Description string `json:"description" binding:"omitempty,max=500"`
	PriceMinor  int64  `json:"price_minor" binding:"required,min=1"`
	Stock       int    `json:"stock"       binding:"omitempty,min=0"`
}

// UpdateShopItemRequest 修改商品
type UpdateShopItemRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=150"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	PriceMinor  *int64  `json:"price_minor" binding:"omitempty,min=1"`
	Stock       *int    `json:"stock"       binding:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active"`
}

// ShopCheckoutRequest 商城下单请求
type ShopCheckoutRequest struct {
	ShopID          string         `json:"shop_id"          binding:"required,uuid"`
	Items           []ShopCartLine `json:"items"            binding:"required,dive"`
	Fulfilment      string         `json:"fulfilment"       binding:"omitempty,oneof=pickup delivery"`
	DeliveryAddress string         `json:"delivery_address" binding:"omitempty,max=300"`
	Note            string         `json:"note"             binding:"omitempty,max=500"`
}

// CreateLaundryServiceRequest 新增洗衣服务
type CreateLaundryServiceRequest struct {
	Name            string `json:"name"               binding:"required,min=2,max=150"`
	Description     string `json:"description"        binding:"omitempty,max=2000"`
	PricePerKgMinor int64  `json:"price_per_kg_minor" binding:"required,min=1"`
	TurnaroundHours int    `json:"turnaround_hours"   binding:"omitempty,min=1,max=336"`
}

// UpdateLaundryServiceRequest 修改洗衣服务
type UpdateLaundryServiceRequest struct {
	Name            *string `json:"name"               binding:"omitempty,min=2,max=150"`
	Description     *string `json:"description"        binding:"omitempty,max=2000"`
	PricePerKgMinor *int64  `json:"price_per_kg_minor" binding:"omitempty,min=1"`
	TurnaroundHours *int    `json:"turnaround_hours"   binding:"omitempty,min=1,max=336"`
	IsActive        *bool   `json:"is_active"`
}

// LaundryOrderRequest 洗衣下单请求
type LaundryOrderRequest struct {
	ServiceID     string  `json:"service_id"     binding:"required,uuid"`
	WeightKg      float64 `json:"weight_kg"      binding:"required"`
	PickupAddress string  `json:"pickup_address" binding:"required,max=300"`
	Note          string  `json:"note"           binding:"omitempty,max=500"`
}
