package domain

import "strings"

// StatusFinalizada is the raw API status of a closed work order.
const StatusFinalizada = "FINALIZADA"

// WorkOrder is a maintenance service order header ("OS") as returned by the
// last-update endpoint. Timestamps are kept as received; an empty value means
// the timestamp is absent.
type WorkOrder struct {
	Number      int64  `json:"numeroos"`
	CreatedAt   string `json:"datahoraos"`
	StartedAt   string `json:"datahorainicio"`
	FinishedAt  string `json:"datahorafim"`
	Plate       string `json:"placaequipamento"`
	Brand       string `json:"marcaequipamento"`
	Model       string `json:"modeloequipamento"`
	Odometer    string `json:"hodometro"`
	Title       string `json:"titulomanutencao"`
	Type        string `json:"tipomanutencao"`
	Status      string `json:"status"`
	Driver      string `json:"motoristaresponsavel"`
	Mechanic    string `json:"mecanicoresponsavel"`
	Description string `json:"descricaoos"`
	Supplier    string `json:"fornecedor"`
	LastUpdate  string `json:"lastupdate"`
}

// DetailLine is a single material/cost entry of a work order. Numeric fields
// are kept as received and coerced when the merged view is built.
type DetailLine struct {
	OrderNumber   int64  `json:"numeroos"`
	Material      string `json:"material"`
	Quantity      string `json:"quantidade"`
	UnitValue     string `json:"valorunit"`
	TotalValue    string `json:"valortotal"`
	StockQuantity string `json:"quantidadeestoque"`
}

// DetailGroup holds the lines fetched for one work order.
type DetailGroup struct {
	OrderNumber int64
	Lines       []DetailLine
}

// NormalizeStatus trims and upper-cases a raw status value.
func NormalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// IsFinalizada reports whether the raw status means FINALIZADA.
func IsFinalizada(status string) bool {
	return NormalizeStatus(status) == StatusFinalizada
}

// Qualifies reports whether a work order is persisted: status FINALIZADA and
// both start and completion timestamps filled in.
func Qualifies(wo WorkOrder) bool {
	return IsFinalizada(wo.Status) &&
		strings.TrimSpace(wo.StartedAt) != "" &&
		strings.TrimSpace(wo.FinishedAt) != ""
}

// Partition splits orders into qualifying and non-qualifying, keeping order.
func Partition(orders []WorkOrder) (qualifying, transient []WorkOrder) {
	for _, wo := range orders {
		if Qualifies(wo) {
			qualifying = append(qualifying, wo)
		} else {
			transient = append(transient, wo)
		}
	}
	return qualifying, transient
}

// DedupeOrders keeps one header per order number. The last occurrence wins
// and takes the position of the first one.
func DedupeOrders(orders []WorkOrder) []WorkOrder {
	if len(orders) < 2 {
		return orders
	}
	index := make(map[int64]int, len(orders))
	out := make([]WorkOrder, 0, len(orders))
	for _, wo := range orders {
		if i, ok := index[wo.Number]; ok {
			out[i] = wo
			continue
		}
		index[wo.Number] = len(out)
		out = append(out, wo)
	}
	return out
}

// FlattenGroups returns the lines of every group, in group order.
func FlattenGroups(groups []DetailGroup) []DetailLine {
	var lines []DetailLine
	for _, g := range groups {
		lines = append(lines, g.Lines...)
	}
	return lines
}
