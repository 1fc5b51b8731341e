package rules

import (
	"fmt"
	"strings"
)

var statusIcons = map[string]string{
	"preparing":        "🍳",
	"out_for_delivery": "🛵",
	"delivered":        "✅",
	"cancelled":        "❌",
}

// orderStatusReply renders the full status card for an order id, or a
// not-found template when the id is unknown. Lookup misses are a
// reply, never an error.
func (e *Engine) orderStatusReply(orderID string) string {
	order, ok := e.catalog.GetOrder(orderID)
	if !ok {
		return fmt.Sprintf("❌ Order %s not found. Please check the ID.\n\n📝 Sample IDs: ORD100000, ORD100001, ORD100002", orderID)
	}

	icon, ok := statusIcons[order.Status]
	if !ok {
		icon = "📦"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s **Order %s**\n\n", icon, order.OrderID)
	fmt.Fprintf(&b, "Restaurant: %s\n", order.Restaurant)
	fmt.Fprintf(&b, "Items: %s\n", strings.Join(order.Items, ", "))
	fmt.Fprintf(&b, "Total: ₹%d\n", order.Total)
	fmt.Fprintf(&b, "Status: **%s**\n", strings.ToUpper(order.Status))

	switch order.Status {
	case "out_for_delivery":
		fmt.Fprintf(&b, "\nDelivery Partner: %s", orDefault(order.DeliveryPartner, "Assigned"))
		fmt.Fprintf(&b, "\n📞 %s", orDefault(order.PartnerPhone, "Updating..."))
	case "delivered":
		fmt.Fprintf(&b, "\n✅ Delivered at %s", orDefault(order.DeliveryTime, "Recently"))
	case "preparing":
		fmt.Fprintf(&b, "\n⏱️ Expected: %s", orDefault(order.ExpectedDelivery, "30-40 mins"))
	case "cancelled":
		fmt.Fprintf(&b, "\n💰 Refund: %s", orDefault(order.RefundStatus, "Processing"))
	}

	return b.String()
}

// searchReply renders a restaurant search. Zero hits fall back to up
// to 3 popular restaurants and say so.
func (e *Engine) searchReply(query string) string {
	results := e.catalog.SearchRestaurants(query)

	if len(results) == 0 {
		popular := e.catalog.PopularRestaurants()
		var b strings.Builder
		fmt.Fprintf(&b, "No exact match for '%s'. Try these popular ones:\n\n", query)
		for _, r := range popular {
			fmt.Fprintf(&b, "🍴 **%s**\n   %s\n   ⭐ %.1f | ⏱️ %s\n\n", r.Name, r.Cuisine, r.Rating, r.DeliveryTime)
		}
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d restaurant(s):\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "🍴 **%s**\n", r.Name)
		fmt.Fprintf(&b, "   📍 %s\n", r.Area)
		fmt.Fprintf(&b, "   🍽️ %s\n", r.Cuisine)
		fmt.Fprintf(&b, "   ⭐ %.1f | ⏱️ %s | 💵 ₹%d\n\n", r.Rating, r.DeliveryTime, r.DeliveryFee)
	}
	return b.String()
}

// menuReply renders a restaurant's menu. Unknown restaurants and
// empty menus get distinct templates.
func (e *Engine) menuReply(restaurantName string) string {
	restaurant, ok := e.catalog.GetRestaurantByName(restaurantName)
	if !ok {
		return fmt.Sprintf("Restaurant '%s' not found.", restaurantName)
	}

	items := e.catalog.GetMenu(restaurant.ID)
	if len(items) == 0 {
		return fmt.Sprintf("Menu not available for %s.", restaurant.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **%s Menu**\n\n", restaurant.Name)
	for _, item := range items {
		marker := "🔴"
		if item.Veg {
			marker = "🟢"
		}
		fmt.Fprintf(&b, "%s **%s** - ₹%d\n", marker, item.Name, item.Price)
		fmt.Fprintf(&b, "   %s | ⭐ %.1f\n\n", item.Description, item.Rating)
	}
	return b.String()
}

func (e *Engine) popularReply() string {
	popular := e.catalog.PopularRestaurants()
	var b strings.Builder
	b.WriteString("🌟 **Top Rated Restaurants:**\n\n")
	for _, r := range popular {
		fmt.Fprintf(&b, "%s **%s** - ⭐ %.1f\n", r.Image, r.Name, r.Rating)
		fmt.Fprintf(&b, "   %s | %s\n\n", r.Cuisine, r.DeliveryTime)
	}
	return b.String()
}

func (e *Engine) quickDeliveryReply() string {
	quick := e.catalog.QuickDeliveryRestaurants(quickDeliveryThresholdMinutes)
	if len(quick) > 3 {
		quick = quick[:3]
	}
	var b strings.Builder
	b.WriteString("⚡ **Quick Delivery (Under 30 mins):**\n\n")
	for _, r := range quick {
		fmt.Fprintf(&b, "%s %s - %s\n", r.Image, r.Name, r.DeliveryTime)
	}
	return b.String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
