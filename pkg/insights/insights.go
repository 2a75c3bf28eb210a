// Package insights provides the business-intelligence entry points used by
// reporting surfaces. The current implementations are placeholders: each
// returns fixed data and never inspects its input.
package insights

// Placeholder values returned by the stub functions.
const (
	TrendUpward     = "upward"
	SalesForecast   = 120000
	ChurnRisk       = 0.15
	OpenTickets     = 5
	ResolvedTickets = 20
)

const (
	keyTrend          = "trend"
	keyForecast       = "forecast"
	keyChurnRisk      = "churn_risk"
	keyOpen           = "open"
	keyResolved       = "resolved"
	bundleSalesTrends = "sales_trends"
	bundleChurn       = "churn"
	bundleTickets     = "support_tickets"
)

// SalesTrend is the result of AnalyzeSalesTrends.
type SalesTrend struct {
	Trend    string `json:"trend"    yaml:"trend"`
	Forecast int    `json:"forecast" yaml:"forecast"`
}

// Fields returns the result keyed exactly as documented.
func (s SalesTrend) Fields() map[string]any {
	return map[string]any{keyTrend: s.Trend, keyForecast: s.Forecast}
}

// ChurnPrediction is the result of PredictChurn.
type ChurnPrediction struct {
	ChurnRisk float64 `json:"churn_risk" yaml:"churn_risk"`
}

// Fields returns the result keyed exactly as documented.
func (c ChurnPrediction) Fields() map[string]any {
	return map[string]any{keyChurnRisk: c.ChurnRisk}
}

// TicketSummary is the result of SummarizeSupportTickets.
type TicketSummary struct {
	Open     int `json:"open"     yaml:"open"`
	Resolved int `json:"resolved" yaml:"resolved"`
}

// Fields returns the result keyed exactly as documented.
func (t TicketSummary) Fields() map[string]any {
	return map[string]any{keyOpen: t.Open, keyResolved: t.Resolved}
}

// AnalyzeSalesTrends reports the sales trend and forecast for data.
func AnalyzeSalesTrends(_ any) SalesTrend {
	return SalesTrend{Trend: TrendUpward, Forecast: SalesForecast}
}

// PredictChurn estimates the churn risk for clientData.
func PredictChurn(_ any) ChurnPrediction {
	return ChurnPrediction{ChurnRisk: ChurnRisk}
}

// SummarizeSupportTickets counts open and resolved tickets.
func SummarizeSupportTickets(_ any) TicketSummary {
	return TicketSummary{Open: OpenTickets, Resolved: ResolvedTickets}
}

// Bundle groups the three results for rendering.
type Bundle struct {
	SalesTrends    SalesTrend      `json:"sales_trends"    yaml:"sales_trends"`
	Churn          ChurnPrediction `json:"churn"           yaml:"churn"`
	SupportTickets TicketSummary   `json:"support_tickets" yaml:"support_tickets"`
}

// Snapshot runs every stub against the same input.
func Snapshot(data any) Bundle {
	return Bundle{
		SalesTrends:    AnalyzeSalesTrends(data),
		Churn:          PredictChurn(data),
		SupportTickets: SummarizeSupportTickets(data),
	}
}

// Sections returns the bundle as ordered (name, fields) pairs.
func (b Bundle) Sections() []Section {
	return []Section{
		{Name: bundleSalesTrends, Fields: b.SalesTrends.Fields()},
		{Name: bundleChurn, Fields: b.Churn.Fields()},
		{Name: bundleTickets, Fields: b.SupportTickets.Fields()},
	}
}

// Section is one named result inside a Bundle.
type Section struct {
	Fields map[string]any
	Name   string
}
