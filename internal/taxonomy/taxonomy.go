// Package taxonomy holds the static two-level category tree: groups (no parent)
// and leaves (parent is a group). The tree is built once at init and never mutated.
package taxonomy

import "iter"

// Category is one node of the taxonomy.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"` // empty for groups
}

// IsGroup reports whether the category is a top-level group.
func (c Category) IsGroup() bool { return c.ParentID == "" }

// Well-known category ids referenced by the pipeline, rules and analytics.
const (
	GroupTransfers = "sys_transfers"
	GroupUnknown   = "sys_unknown"

	TransferIn       = "base_transfer_in"
	TransferOut      = "base_transfer_out"
	TopUp            = "base_topup"
	CashOut          = "base_cashout"
	InternalTransfer = "base_internal_transfer"

	Unknown      = "base_unknown"
	IncomeOther  = "base_income_other"
	IncomeSalary = "base_income_salary"
	Cashback     = "base_income_cashback"

	Marketplace  = "base_shopping_marketplace"
	Groceries    = "base_shopping_groceries"
	CarService   = "base_transport_car_service"
	HomeServices = "base_home_services"
	HomeInternet = "base_home_internet"
)

// raw is the canonical ordering of the tree. Leaves follow their group.
var raw = []Category{
	{GroupTransfers, "Service movements", ""},
	{TransferIn, "Incoming transfer", GroupTransfers},
	{TransferOut, "Outgoing transfer", GroupTransfers},
	{TopUp, "Top-up", GroupTransfers},
	{CashOut, "Cash withdrawal", GroupTransfers},
	{InternalTransfer, "Between own accounts", GroupTransfers},

	{"sys_food_out", "Eating out", ""},
	{"base_food_fastfood", "Fast food", "sys_food_out"},
	{"base_food_coffee", "Coffee/tea", "sys_food_out"},
	{"base_food_restaurants", "Restaurants", "sys_food_out"},

	{"sys_shopping", "Shopping/home", ""},
	{Groceries, "Supermarkets", "sys_shopping"},
	{"base_shopping_pharmacy", "Pharmacies", "sys_shopping"},
	{"base_shopping_electronics", "Electronics/gadgets", "sys_shopping"},
	{"base_shopping_clothes", "Clothes/shoes", "sys_shopping"},
	{"base_shopping_alcohol", "Alcohol", "sys_shopping"},
	{"base_shopping_books", "Books", "sys_shopping"},
	{"base_shopping_stationery", "Stationery", "sys_shopping"},
	{"base_shopping_children", "Children's goods", "sys_shopping"},
	{Marketplace, "Marketplaces", "sys_shopping"},
	{"base_shopping_flowers", "Flowers", "sys_shopping"},
	{"base_shopping_gifts", "Gifts/crafts", "sys_shopping"},
	{"base_shopping_jewelry", "Jewelry", "sys_shopping"},
	{"base_shopping_sport", "Sporting goods", "sys_shopping"},
	{"base_shopping_furniture", "Furniture/renovation", "sys_shopping"},

	{"sys_transport", "Transport", ""},
	{"base_transport_taxi", "Taxi", "sys_transport"},
	{"base_transport_public", "Public transport", "sys_transport"},
	{"base_transport_fuel", "Fuel", "sys_transport"},
	{"base_transport_parking", "Parking/fines", "sys_transport"},
	{"base_transport_carsharing", "Carsharing", "sys_transport"},
	{"base_transport_scooter", "Scooters", "sys_transport"},
	{"base_transport_car_rental", "Car rental", "sys_transport"},
	{CarService, "Car service", "sys_transport"},
	{"base_transport_parts", "Car parts", "sys_transport"},
	{"base_transport_toll", "Toll roads", "sys_transport"},
	{"base_transport_delivery", "Courier/delivery", "sys_transport"},

	{"sys_travel", "Travel", ""},
	{"base_travel_flights", "Flights", "sys_travel"},
	{"base_travel_hotels", "Hotels", "sys_travel"},
	{"base_travel_trains", "Trains/buses", "sys_travel"},
	{"base_travel_dutyfree", "Duty free/airport", "sys_travel"},
	{"base_travel_other", "Other travel", "sys_travel"},

	{"sys_entertainment", "Entertainment", ""},
	{"base_entertainment_cinema", "Cinema/concerts", "sys_entertainment"},
	{"base_entertainment_games", "Games/subscriptions", "sys_entertainment"},
	{"base_entertainment_online_video", "Online video", "sys_entertainment"},
	{"base_entertainment_music", "Music", "sys_entertainment"},
	{"base_entertainment_culture", "Culture/art", "sys_entertainment"},
	{"base_entertainment_activity", "Active leisure", "sys_entertainment"},
	{"base_entertainment_other", "Other entertainment", "sys_entertainment"},
	{"base_entertainment_digital", "Digital goods", "sys_entertainment"},

	{"sys_health", "Health", ""},
	{"base_health_medicine", "Medicine/clinics", "sys_health"},
	{"base_health_fitness", "Fitness", "sys_health"},

	{"sys_home_bills", "Home and bills", ""},
	{"base_home_rent", "Rent/mortgage", "sys_home_bills"},
	{"base_home_utilities", "Utilities", "sys_home_bills"},
	{HomeServices, "Home services", "sys_home_bills"},
	{"base_home_pets", "Pets", "sys_home_bills"},
	{HomeInternet, "Phone/internet/TV", "sys_home_bills"},
	{"base_home_repair", "Home repair", "sys_home_bills"},

	{"sys_taxes_fines", "Taxes/fines", ""},
	{"base_taxes_state", "Taxes/duties", "sys_taxes_fines"},
	{"base_taxes_fines", "Traffic fines", "sys_taxes_fines"},

	{"sys_income", "Income", ""},
	{IncomeSalary, "Salary", "sys_income"},
	{Cashback, "Cashback/bonuses", "sys_income"},
	{IncomeOther, "Other income", "sys_income"},

	{"sys_beauty", "Beauty", ""},
	{"base_beauty_services", "Salons/services", "sys_beauty"},
	{"base_beauty_cosmetics", "Cosmetics", "sys_beauty"},

	{"sys_education", "Education", ""},
	{"base_education_general", "Education", "sys_education"},

	{GroupUnknown, "Unlabelled", ""},
	{Unknown, "Needs labelling", GroupUnknown},
	{"base_donations", "Donations/NGO", GroupUnknown},
}

var (
	index   = make(map[string]Category, len(raw))
	leafIDs []string

	serviceIDs = map[string]bool{
		TransferIn:       true,
		TransferOut:      true,
		TopUp:            true,
		CashOut:          true,
		InternalTransfer: true,
	}

	travelIDs = map[string]bool{
		"base_travel_flights":  true,
		"base_travel_hotels":   true,
		"base_travel_trains":   true,
		"base_travel_dutyfree": true,
		"base_travel_other":    true,
	}
)

func init() {
	for _, c := range raw {
		index[c.ID] = c
		if !c.IsGroup() {
			leafIDs = append(leafIDs, c.ID)
		}
	}
}

// Lookup returns the category with the given id.
func Lookup(id string) (Category, bool) {
	c, ok := index[id]
	return c, ok
}

// Name returns the display name of id, or id itself when unknown.
func Name(id string) string {
	if c, ok := index[id]; ok {
		return c.Name
	}
	return id
}

// IsLeaf reports whether id is a known leaf category.
func IsLeaf(id string) bool {
	c, ok := index[id]
	return ok && !c.IsGroup()
}

// IsService reports whether id is one of the money-movement leaves.
func IsService(id string) bool { return serviceIDs[id] }

// IsTravel reports whether id is a travel leaf.
func IsTravel(id string) bool { return travelIDs[id] }

// ServiceIDs returns the service leaf ids in taxonomy order.
func ServiceIDs() []string {
	var out []string
	for _, id := range leafIDs {
		if serviceIDs[id] {
			out = append(out, id)
		}
	}
	return out
}

// LeafIDs returns a copy of all leaf ids in taxonomy order.
func LeafIDs() []string {
	out := make([]string, len(leafIDs))
	copy(out, leafIDs)
	return out
}

// ResolveGroup walks the parent chain of id and returns the group it belongs to.
// A group id resolves to itself. Unknown ids, and ids whose chain loops, resolve to "".
func ResolveGroup(id string) (string, bool) {
	visited := make(map[string]bool)
	current := id
	for current != "" && !visited[current] {
		visited[current] = true
		c, ok := index[current]
		if !ok {
			return "", false
		}
		if c.IsGroup() {
			return c.ID, true
		}
		current = c.ParentID
	}
	return "", false
}

// LeafCategories yields every leaf category. Each call starts from the beginning.
func LeafCategories() iter.Seq[Category] {
	return func(yield func(Category) bool) {
		for _, id := range leafIDs {
			if !yield(index[id]) {
				return
			}
		}
	}
}

// Groups returns all group categories in taxonomy order.
func Groups() []Category {
	var out []Category
	for _, c := range raw {
		if c.IsGroup() {
			out = append(out, c)
		}
	}
	return out
}
