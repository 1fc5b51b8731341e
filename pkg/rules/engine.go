package rules

import (
	"regexp"
	"strings"

	"github.com/feastline/supportbot/pkg/catalog"
)

// Two deliberately different order-id patterns. The strict form is
// what order ids actually look like; the loose form only applies once
// an order-intent keyword already fired, so "ORD123" in "track ORD123"
// still resolves instead of falling through to the model.
const (
	orderIDStrictPattern = `ORD\d{6}`
	orderIDLoosePattern  = `ORD\d+`
)

var (
	orderIDStrict = regexp.MustCompile(orderIDStrictPattern)
	orderIDLoose  = regexp.MustCompile(orderIDLoosePattern)
)

// quickDeliveryThresholdMinutes caps what counts as "quick".
const quickDeliveryThresholdMinutes = 30

// cannedReply pairs a trigger key with its fixed reply. The slice
// order is the match order: a normalized message matches when it
// equals the key or starts with it.
type cannedReply struct {
	key   string
	reply string
}

var cannedReplies = []cannedReply{
	{"hi", "👋 Hello! How can I help you today?"},
	{"hello", "👋 Hi there! What would you like to know?"},
	{"help", "I can help you with:\n• 📦 Order tracking\n• 🍴 Restaurant search\n• 📋 Menu viewing\n• 💰 Refunds"},
	{"thanks", "😊 You're welcome! Anything else I can help with?"},
	{"thank you", "😊 Happy to help! Let me know if you need anything else."},
	{"bye", "👋 Goodbye! Have a great day!"},
}

var cuisineKeywords = []string{
	"pizza", "burger", "biryani", "dosa", "chinese",
	"north indian", "south indian", "fast food",
}

// restaurantKeywords are the name fragments the menu intent
// recognizes; each resolves through the catalog's partial-name lookup.
var restaurantKeywords = []string{
	"domino", "burger king", "biryani", "kfc", "udupi", "punjabi",
}

var (
	orderIntentKeywords     = []string{"track", "order", "status", "where"}
	foodIntentKeywords      = []string{"restaurant", "food", "eat", "hungry", "order food"}
	recommendIntentKeywords = []string{"popular", "best", "recommend", "suggest", "top"}
	urgencyIntentKeywords   = []string{"quick", "fast", "urgent", "asap"}
	paymentIntentKeywords   = []string{"refund", "payment", "money", "paid", "charge"}
	complaintIntentKeywords = []string{"complaint", "issue", "problem", "wrong", "late", "cold"}
)

// matcher is one deterministic rule: it inspects the message and
// either produces the final reply or passes.
type matcher struct {
	name  string
	match func(raw, norm string) (string, bool)
}

// Engine evaluates an ordered list of matchers against a message.
// Order is part of the contract: "track my pizza order" must hit the
// order-intent rule, not the pizza rule.
type Engine struct {
	catalog      *catalog.Catalog
	supportPhone string
	matchers     []matcher
}

func NewEngine(cat *catalog.Catalog, supportPhone string) *Engine {
	e := &Engine{
		catalog:      cat,
		supportPhone: supportPhone,
	}
	e.matchers = []matcher{
		{"canned", e.matchCanned},
		{"order_id", e.matchOrderID},
		{"order_intent", e.matchOrderIntent},
		{"cuisine", e.matchCuisine},
		{"food_intent", e.matchFoodIntent},
		{"menu", e.matchMenu},
		{"recommend", e.matchRecommend},
		{"urgency", e.matchUrgency},
		{"payment", e.matchPayment},
		{"complaint", e.matchComplaint},
	}
	return e
}

// Match runs the matchers in priority order and returns the first
// reply, along with the name of the rule that produced it. ok is
// false when no rule fired.
func (e *Engine) Match(message string) (reply string, rule string, ok bool) {
	norm := strings.ToLower(strings.TrimSpace(message))
	for _, m := range e.matchers {
		if reply, ok := m.match(message, norm); ok {
			return reply, m.name, true
		}
	}
	return "", "", false
}

func (e *Engine) matchCanned(_, norm string) (string, bool) {
	for _, c := range cannedReplies {
		if norm == c.key || strings.HasPrefix(norm, c.key) {
			return c.reply, true
		}
	}
	return "", false
}

func (e *Engine) matchOrderID(raw, _ string) (string, bool) {
	if id := orderIDStrict.FindString(strings.ToUpper(raw)); id != "" {
		return e.orderStatusReply(id), true
	}
	return "", false
}

func (e *Engine) matchOrderIntent(raw, norm string) (string, bool) {
	if !containsAny(norm, orderIntentKeywords) {
		return "", false
	}
	upper := strings.ToUpper(raw)
	if strings.Contains(upper, "ORD") {
		if id := orderIDLoose.FindString(upper); id != "" {
			return e.orderStatusReply(id), true
		}
	}
	return "Please provide order ID (e.g., ORD100000)\n\n📝 Test IDs:\n• ORD100000 (Delivered)\n• ORD100001 (Preparing)\n• ORD100002 (Out for Delivery)", true
}

func (e *Engine) matchCuisine(_, norm string) (string, bool) {
	for _, cuisine := range cuisineKeywords {
		if strings.Contains(norm, cuisine) {
			return e.searchReply(cuisine), true
		}
	}
	return "", false
}

func (e *Engine) matchFoodIntent(_, norm string) (string, bool) {
	if containsAny(norm, foodIntentKeywords) {
		return e.searchReply("restaurant"), true
	}
	return "", false
}

func (e *Engine) matchMenu(_, norm string) (string, bool) {
	if !strings.Contains(norm, "menu") {
		return "", false
	}
	for _, keyword := range restaurantKeywords {
		if strings.Contains(norm, keyword) {
			return e.menuReply(keyword), true
		}
	}
	return "Which restaurant's menu?\n• Domino's Pizza\n• Burger King\n• Biryani Blues\n• KFC\n• Udupi Garden\n• Punjabi Rasoi", true
}

func (e *Engine) matchRecommend(_, norm string) (string, bool) {
	if containsAny(norm, recommendIntentKeywords) {
		return e.popularReply(), true
	}
	return "", false
}

func (e *Engine) matchUrgency(_, norm string) (string, bool) {
	if containsAny(norm, urgencyIntentKeywords) {
		return e.quickDeliveryReply(), true
	}
	return "", false
}

func (e *Engine) matchPayment(_, norm string) (string, bool) {
	if containsAny(norm, paymentIntentKeywords) {
		return "💰 **Refund Help:**\n\nTo process refund:\n1. Provide order ID\n2. Reason for refund\n3. Refunds take 2-3 business days\n\nNeed help with specific order?", true
	}
	return "", false
}

func (e *Engine) matchComplaint(_, norm string) (string, bool) {
	if containsAny(norm, complaintIntentKeywords) {
		return "⚠️ **Report an Issue:**\n\nI'm here to help! Please:\n1. Share your order ID\n2. Describe the issue\n3. I'll connect you with support\n\nOr contact: " + e.supportPhone, true
	}
	return "", false
}

func containsAny(norm string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(norm, k) {
			return true
		}
	}
	return false
}
