package model

// Category is a semantic spending tag from a closed set.
type Category string

const (
	CategoryHousing       Category = "housing"
	CategorySupermarket   Category = "supermarket"
	CategoryFood          Category = "food"
	CategorySubscriptions Category = "subscriptions"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
	CategoryTravel        Category = "travel"
	CategoryTaxes         Category = "taxes"
	CategoryTransfers     Category = "transfers"
	CategoryIncome        Category = "income"
	CategoryDiving        Category = "diving"
	CategoryTechnology    Category = "technology"
	CategoryOther         Category = "other"
)

var categoryLabels = map[Category]string{
	CategoryFood:          "Restaurantes y bares",
	CategorySupermarket:   "Supermercado",
	CategoryTransport:     "Transporte",
	CategoryHousing:       "Vivienda",
	CategoryShopping:      "Compras",
	CategoryHealth:        "Salud y farmacia",
	CategoryEntertainment: "Ocio",
	CategorySubscriptions: "Suscripciones",
	CategoryTravel:        "Viajes",
	CategoryTaxes:         "Impuestos",
	CategoryTransfers:     "Transferencias",
	CategoryIncome:        "Ingresos",
	CategoryDiving:        "Buceo",
	CategoryTechnology:    "Tecnología",
	CategoryOther:         "Otros",
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryHousing, CategorySupermarket, CategoryFood, CategorySubscriptions,
		CategoryTransport, CategoryShopping, CategoryHealth, CategoryEntertainment,
		CategoryTravel, CategoryTaxes, CategoryTransfers, CategoryIncome,
		CategoryDiving, CategoryTechnology, CategoryOther,
	}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label, or the raw tag for unknown values.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}
