package category

// Other is assigned to rows no keyword matches.
const Other = "Other"

// Defaults returns the category list of a new ledger.
func Defaults() []string {
	return []string{"Salary", "Investments", "Food", "Housing", "Transport", "Leisure", "Health", Other}
}

// DefaultRules returns the built-in keyword table, checked in order.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Transport", Keywords: []string{"uber", "99app", "99 pop", "cabify", "posto", "shell", "ipiranga", "petrobras", "combustivel", "gasolina", "estacionamento", "sem parar"}},
		{Category: "Food", Keywords: []string{"ifood", "rappi", "ze delivery", "restaurante", "lanchonete", "padaria", "pizzaria", "burger", "mcdonald", "supermercado"}},
		{Category: "Leisure", Keywords: []string{"netflix", "spotify", "disney", "hbo", "prime video", "youtube premium", "steam", "cinema", "ingresso"}},
		{Category: "Health", Keywords: []string{"farmacia", "drogaria", "drogasil", "droga raia", "pague menos", "hospital", "clinica", "laboratorio", "unimed"}},
	}
}
