package categorize

import "github.com/luca-finance/luca/internal/model"

// Rule maps keywords to a category. ExactMatch entries are compared
// case-sensitively against the whole description and win over keywords.
type Rule struct {
	Category   model.Category `yaml:"category"`
	Keywords   []string       `yaml:"keywords"`
	ExactMatch []string       `yaml:"exact_match,omitempty"`
}

// DefaultRules returns the built-in rule table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:   model.CategoryHousing,
			Keywords:   []string{"aribau 9", "piso", "renta junio", "renta sept", "renta agosto", "renta oct", "renta nov"},
			ExactMatch: []string{"WEON BALMES"},
		},
		{
			Category: model.CategorySupermarket,
			Keywords: []string{
				"coaliment", "aldi", "lidl", "eroski", "sorli", "mercadona", "charter", "primaprix",
				"proxim", "condis", "alcampo", "casa ametller", "nick fruit", "peixnot", "macia ninot",
				"supermercat", "supermercado", "super shop", "superestalvi", "cife super",
				"montse y angel", "escofet oliver", "discount concejo", "jespac",
			},
		},
		{
			Category: model.CategoryFood,
			Keywords: []string{
				"bar", "restaurant", "cafe", "taverna", "pizz", "kebab", "tapas", "cervece",
				"grill", "braseria", "asador", "taberna", "bocata", "empanada", "creps",
				"gelat", "heladeria", "focacceria", "makamaka", "champanillo", "ovella",
				"casa carmen", "cu-cut", "la cala", "corallo", "vinitus", "tribeca",
				"vermuteca", "noa noa", "delacrem", "sandwichez", "milanesa", "mingaton",
				"despensa", "croq", "forn mistral", "roxy", "jaleo", "la rica kitchen",
				"doner", "iskender", "istanbul", "rey de istanbul", "savannah", "caliente",
				"miramelindo", "bilbao berria", "dock", "indian", "ogham", "kopas",
				"xativa", "massamara", "oassis", "grandegracia", "a prop", "boys bar",
				"kostan", "akelarre", "snack", "pecera", "picaro", "boa",
				"la fira", "ideal cocktail", "soma bar", "arc de triomf",
				"comida", "el copetin", "torreon", "spirale", "hoppiness",
				"orxateria", "anita helado", "xoroi", "ciao", "peter cafe",
				"brasabuey", "atseden", "artajo", "e.s. buenavista",
				"bonny and gava", "decruzmorales", "cottage", "weon",
			},
		},
		{
			Category: model.CategorySubscriptions,
			Keywords: []string{"spotify", "apple.com/bill", "openai", "chatgpt", "bicing", "grit ventures"},
		},
		{
			Category: model.CategoryTransport,
			Keywords: []string{
				"taxi", "vueling", "bicing", "metropolitano", "sata air", "airasia",
				"bus/mrt", "grab*", "gasolina", "e.s.", "carburant", "low cost fuel",
				"estacion servicio",
			},
		},
		{
			Category: model.CategoryShopping,
			Keywords: []string{
				"decathlon", "primark", "zara", "shein", "intimissimi", "c&a",
				"perfumeria primor", "druni", "bazar angela", "armario y vida",
				"belles arts", "skechers", "buy non stop", "fashion bug",
				"vistesdesalts", "el corte ingles", "crearte", "plana y dieguez",
				"gran via 443", "multimarca",
			},
		},
		{
			Category: model.CategoryHealth,
			Keywords: []string{
				"farmacia", "herbolario", "herbolari", "nusa medika", "nawaloka",
				"hospital", "productos parami", "peak health", "diet doctor",
				"gili air clinic",
			},
		},
		{
			Category: model.CategoryEntertainment,
			Keywords: []string{
				"fever", "razzmatazz", "discoteca", "disco", "sala", "never bar",
				"miles away", "entrapolis", "dl palau", "mooby", "companyia central",
				"cova d", "magic", "garage beer", "rei de copas", "fira casanova",
				"instasorteos", "iluzione", "games",
			},
		},
		{
			Category: model.CategoryTravel,
			Keywords: []string{
				"gotogate", "booking", "agoda", "hostel", "hotel", "equity point",
				"safestay", "azores", "marina bay", "vueling", "ruki dia",
				"enjoy it", "sikim", "jijonenca", "ona", "atlas tapas",
				"fanals", "guille azores", "monbus", "tpi bandara",
				"payhere", "adroit", "aloft", "mandapa", "bali",
				"sol & luna", "penida", "lighthouse", "deja'vu",
				"fuvahmulah", "pirates of maldiv", "zola.com",
				"azorazul", "catalonia barcelo", "n n gromov",
				"ida-insurance",
			},
		},
		{
			Category: model.CategoryTaxes,
			Keywords: []string{
				"irpf", "iva", "tributos", "impuesto renta", "pagos a.e.a.t",
				"embargo", "bsm dip grues", "ajunt bcn",
			},
		},
		{
			Category: model.CategoryTransfers,
			Keywords: []string{
				"traspaso propio", "transfer.hucha", "revolut", "transf.", "trf.internacional",
				"bizum", "wise", "mycard", "movimientos tarje", "cuota dia a dia",
				"reint.cajero", "ingreso cajero", "complementos abri",
			},
		},
		{
			Category: model.CategoryIncome,
			Keywords: []string{"transf. a su favor", "arag s.e.", "mm e.f. sant anto", "divevolk"},
		},
		{
			Category: model.CategoryDiving,
			Keywords: []string{
				"vertical freediv", "divevolk", "dream dive", "aigua esport",
				"picornell", "scuba", "dive",
			},
		},
		{
			Category: model.CategoryTechnology,
			Keywords: []string{
				"apple store", "informatica", "optikseis", "name-cheap", "go daddy",
				"sumup", "happymovil", "simyo", "directf*",
				"pfs zacatrus", "microfusa", "lavado suave",
			},
		},
	}
}
