package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

//go:embed seed/*.json
var seedFiles embed.FS

// Catalog is the read-only data gateway for restaurants, menus, and
// orders. Everything is loaded into memory once at startup; lookups
// never touch disk.
type Catalog struct {
	restaurants []Restaurant
	menus       map[string][]MenuItem
	orders      map[string]Order
}

// Files names the JSON files a catalog is loaded from. Any file
// missing from dir falls back to the embedded seed data.
type Files struct {
	Dir         string
	Restaurants string
	Menu        string
	Orders      string
}

func DefaultFiles(dir string) Files {
	return Files{
		Dir:         dir,
		Restaurants: "restaurants.json",
		Menu:        "menu.json",
		Orders:      "orders.json",
	}
}

// Load builds a catalog from files, falling back to the embedded seed
// for each file that does not exist on disk.
func Load(files Files) (*Catalog, error) {
	var restaurants restaurantsFile
	if err := loadJSON(files.Dir, files.Restaurants, &restaurants); err != nil {
		return nil, fmt.Errorf("load restaurants: %w", err)
	}

	var menu menuFile
	if err := loadJSON(files.Dir, files.Menu, &menu); err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}

	var orders ordersFile
	if err := loadJSON(files.Dir, files.Orders, &orders); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	c := &Catalog{
		restaurants: restaurants.Restaurants,
		menus:       make(map[string][]MenuItem, len(menu.MenuItems)),
		orders:      make(map[string]Order, len(orders.Orders)),
	}
	for _, m := range menu.MenuItems {
		c.menus[m.RestaurantID] = m.Items
	}
	for _, o := range orders.Orders {
		c.orders[strings.ToUpper(o.OrderID)] = o
	}

	return c, nil
}

// LoadSeed builds a catalog purely from the embedded seed data.
func LoadSeed() (*Catalog, error) {
	return Load(DefaultFiles(""))
}

func loadJSON(dir, name string, v interface{}) error {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return json.Unmarshal(data, v)
		}
		if !os.IsNotExist(err) {
			return err
		}
	}

	data, err := seedFiles.ReadFile("seed/" + name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteSeed materializes the embedded seed files into dir, skipping
// files that already exist. Used by onboarding.
func WriteSeed(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	entries, err := seedFiles.ReadDir("seed")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		dest := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		data, err := seedFiles.ReadFile("seed/" + entry.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// SearchRestaurants returns up to 5 restaurants whose name or cuisine
// contains query (case-insensitive substring match).
func (c *Catalog) SearchRestaurants(query string) []Restaurant {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var results []Restaurant
	for _, r := range c.restaurants {
		if strings.Contains(strings.ToLower(r.Name), query) ||
			strings.Contains(strings.ToLower(r.Cuisine), query) {
			results = append(results, r)
			if len(results) == 5 {
				break
			}
		}
	}
	return results
}

// GetOrder looks up an order by its id (case-insensitive).
func (c *Catalog) GetOrder(orderID string) (Order, bool) {
	o, ok := c.orders[strings.ToUpper(strings.TrimSpace(orderID))]
	return o, ok
}

// GetMenu returns the menu items for a restaurant id, possibly empty.
func (c *Catalog) GetMenu(restaurantID string) []MenuItem {
	return c.menus[restaurantID]
}

// GetRestaurantByName returns the first restaurant whose name contains
// name (case-insensitive substring), mirroring how users type partial
// names like "domino".
func (c *Catalog) GetRestaurantByName(name string) (Restaurant, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Restaurant{}, false
	}
	for _, r := range c.restaurants {
		if strings.Contains(strings.ToLower(r.Name), name) {
			return r, true
		}
	}
	return Restaurant{}, false
}

// PopularRestaurants returns up to 3 restaurants rated 4.3 or higher,
// best rated first.
func (c *Catalog) PopularRestaurants() []Restaurant {
	var popular []Restaurant
	for _, r := range c.restaurants {
		if r.Rating >= 4.3 {
			popular = append(popular, r)
		}
	}
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Rating > popular[j].Rating
	})
	if len(popular) > 3 {
		popular = popular[:3]
	}
	return popular
}

// QuickDeliveryRestaurants returns restaurants whose advertised
// delivery time is at most thresholdMinutes.
func (c *Catalog) QuickDeliveryRestaurants(thresholdMinutes int) []Restaurant {
	var quick []Restaurant
	for _, r := range c.restaurants {
		minutes, ok := deliveryMinutes(r.DeliveryTime)
		if ok && minutes <= thresholdMinutes {
			quick = append(quick, r)
		}
	}
	return quick
}

// deliveryMinutes parses the leading number from strings like
// "25 mins".
func deliveryMinutes(deliveryTime string) (int, bool) {
	fields := strings.Fields(deliveryTime)
	if len(fields) == 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return minutes, true
}
