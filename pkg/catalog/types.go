package catalog

// Restaurant is one storefront in the delivery catalog.
type Restaurant struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Area         string  `json:"area"`
	Cuisine      string  `json:"cuisine"`
	Rating       float64 `json:"rating"`
	DeliveryTime string  `json:"delivery_time"` // e.g. "25 mins"
	DeliveryFee  int     `json:"delivery_fee"`
	Image        string  `json:"image"`
}

// MenuItem is one dish on a restaurant menu.
type MenuItem struct {
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Description string  `json:"description"`
	Veg         bool    `json:"veg"`
	Rating      float64 `json:"rating"`
}

// Order is a placed order in one of the tracked states
// (preparing, out_for_delivery, delivered, cancelled).
type Order struct {
	OrderID          string   `json:"order_id"`
	Restaurant       string   `json:"restaurant"`
	Items            []string `json:"items"`
	Total            int      `json:"total"`
	Status           string   `json:"status"`
	DeliveryPartner  string   `json:"delivery_partner,omitempty"`
	PartnerPhone     string   `json:"partner_phone,omitempty"`
	DeliveryTime     string   `json:"delivery_time,omitempty"`
	ExpectedDelivery string   `json:"expected_delivery,omitempty"`
	RefundStatus     string   `json:"refund_status,omitempty"`
}

type restaurantsFile struct {
	Restaurants []Restaurant `json:"restaurants"`
}

type menuFile struct {
	MenuItems []restaurantMenu `json:"menu_items"`
}

type restaurantMenu struct {
	RestaurantID string     `json:"restaurant_id"`
	Items        []MenuItem `json:"items"`
}

type ordersFile struct {
	Orders []Order `json:"orders"`
}
