package pipeline

import (
	"strings"

	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

var heuristicMCC = map[string]string{
	"5411": taxonomy.Groceries,
	"5814": "base_food_fastfood",
	"5812": "base_food_restaurants",
	"4111": "base_transport_public",
	"4121": "base_transport_taxi",
	"4789": "base_travel_dutyfree",
	"4511": "base_travel_flights",
	"4112": "base_travel_trains",
	"7011": "base_travel_hotels",
	"5541": "base_transport_fuel",
	"5542": "base_transport_fuel",
	"5977": "base_health_fitness",
}

// heuristicKeywords is checked in order against the normalized text.
// It overlaps with the rule table's marketplace list but is kept separately.
var heuristicKeywords = []struct {
	keyword    string
	categoryID string
}{
	{"ашан", taxonomy.Groceries},
	{"перекрест", taxonomy.Groceries},
	{"perekrest", taxonomy.Groceries},
	{"lenta", taxonomy.Groceries},
	{"pyateroch", taxonomy.Groceries},
	{"pyatero", taxonomy.Groceries},
	{"magnit", taxonomy.Groceries},
	{"da!", taxonomy.Groceries},
	{"chesnok", taxonomy.Groceries},
	{"malishev", taxonomy.Groceries},
	{"yandex market", taxonomy.Marketplace},
	{"market yandex", taxonomy.Marketplace},
	{"ozon", taxonomy.Marketplace},
	{"wildberries", taxonomy.Marketplace},
	{"wb ru", taxonomy.Marketplace},
	{"avito", taxonomy.Marketplace},
	{"vkusnoitochka", "base_food_fastfood"},
	{"kfc", "base_food_fastfood"},
	{"burger", "base_food_fastfood"},
	{"coffee", "base_food_coffee"},
	{"starbucks", "base_food_coffee"},
	{"taxi", "base_transport_taxi"},
	{"yandex go", "base_transport_taxi"},
	{"yandex.taxi", "base_transport_taxi"},
	{"uber", "base_transport_taxi"},
	{"aero", "base_travel_flights"},
	{"airlines", "base_travel_flights"},
	{"rjd", "base_travel_trains"},
	{"cinema", "base_entertainment_cinema"},
	{"кин", "base_entertainment_cinema"},
	{"apteka", "base_shopping_pharmacy"},
	{"аптека", "base_shopping_pharmacy"},
}

// Heuristic is the deterministic stand-in for an untrained classifier:
// MCC first, then keyword containment.
func Heuristic(f features.Bundle) (string, bool) {
	if id, ok := heuristicMCC[f.MCC]; ok {
		return id, true
	}
	for _, kw := range heuristicKeywords {
		if strings.Contains(f.Text, kw.keyword) {
			return kw.categoryID, true
		}
	}
	return "", false
}
