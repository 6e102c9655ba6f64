package plan

import "github.com/shopspring/decimal"

// CatalogEntry defines a plan as sold on the marketing site. The base
// price is the monthly price in major units; the annual price and the
// per-installment prices are derived from it.
type CatalogEntry struct {
	Name         string
	Description  string
	MonthlyPrice decimal.Decimal
	Currency     string
	Features     []string
}

// Catalog returns what plans are available for purchase.
// Note, changing a Name here makes the synchronizer treat the entry as a
// brand-new plan: a new Product and Prices will be created on Stripe and
// the old rows are left behind. Rename by retiring the old plan instead.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{
			Name:         "Essencial",
			Description:  "Para profissionais autônomos começando a organizar sua agenda",
			MonthlyPrice: decimal.RequireFromString("89.00"),
			Currency:     "brl",
			Features: []string{
				"1 profissional",
				"Agenda online ilimitada",
				"Lembretes por WhatsApp",
				"Página de agendamento personalizada",
			},
		},
		{
			Name:         "Profissional",
			Description:  "Para clínicas e estúdios com equipe pequena",
			MonthlyPrice: decimal.RequireFromString("111.00"),
			Currency:     "brl",
			Features: []string{
				"Até 5 profissionais",
				"Agenda online ilimitada",
				"Lembretes por WhatsApp",
				"Página de agendamento personalizada",
				"Relatórios de atendimento",
				"Controle de comissões",
			},
		},
		{
			Name:         "Premium",
			Description:  "Para redes e franquias que precisam de tudo",
			MonthlyPrice: decimal.RequireFromString("149.00"),
			Currency:     "brl",
			Features: []string{
				"Profissionais ilimitados",
				"Agenda online ilimitada",
				"Lembretes por WhatsApp",
				"Página de agendamento personalizada",
				"Relatórios de atendimento",
				"Controle de comissões",
				"Múltiplas unidades",
				"Suporte prioritário",
			},
		},
	}
}
