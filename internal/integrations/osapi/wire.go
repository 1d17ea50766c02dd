package osapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"osdashboard/internal/domain"
)

// text decodes any JSON scalar into its string form; null becomes "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	// Numbers and booleans keep their literal representation.
	*t = text(b)
	return nil
}

func (t text) String() string { return string(t) }

func (t text) orderNumber() (int64, bool) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n > 0
	}
	// Some payloads carry the number as a float literal (e.g. 1234.0).
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

type workOrderResponse struct {
	Number      text `json:"numeroos"`
	CreatedAt   text `json:"datahoraos"`
	StartedAt   text `json:"datahorainicio"`
	FinishedAt  text `json:"datahorafim"`
	Plate       text `json:"placaequipamento"`
	Brand       text `json:"marcaequipamento"`
	Model       text `json:"modeloequipamento"`
	Odometer    text `json:"hodometro"`
	Title       text `json:"titulomanutencao"`
	Type        text `json:"tipomanutencao"`
	Status      text `json:"status"`
	Driver      text `json:"motoristaresponsavel"`
	Mechanic    text `json:"mecanicoresponsavel"`
	Description text `json:"descricaoos"`
	Supplier    text `json:"fornecedor"`
	LastUpdate  text `json:"lastupdate"`
}

func (r workOrderResponse) toDomain() (domain.WorkOrder, bool) {
	number, ok := r.Number.orderNumber()
	if !ok {
		return domain.WorkOrder{}, false
	}
	return domain.WorkOrder{
		Number:      number,
		CreatedAt:   r.CreatedAt.String(),
		StartedAt:   r.StartedAt.String(),
		FinishedAt:  r.FinishedAt.String(),
		Plate:       r.Plate.String(),
		Brand:       r.Brand.String(),
		Model:       r.Model.String(),
		Odometer:    r.Odometer.String(),
		Title:       r.Title.String(),
		Type:        r.Type.String(),
		Status:      r.Status.String(),
		Driver:      r.Driver.String(),
		Mechanic:    r.Mechanic.String(),
		Description: r.Description.String(),
		Supplier:    r.Supplier.String(),
		LastUpdate:  r.LastUpdate.String(),
	}, true
}

type lastUpdateResponse struct {
	Data []workOrderResponse `json:"data"`
}

type detailLineResponse struct {
	Number        text `json:"numeroos"`
	Material      text `json:"material"`
	Quantity      text `json:"quantidade"`
	UnitValue     text `json:"valorunit"`
	TotalValue    text `json:"valortotal"`
	StockQuantity text `json:"quantidadeestoque"`
}

type detailsResponse struct {
	Status any                   `json:"status"`
	Data   []*detailLineResponse `json:"data"`
}

type authRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// truthy mirrors the loose "status" flag of the details endpoint.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		s := strings.TrimSpace(val)
		return s != "" && !strings.EqualFold(s, "false") && s != "0"
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
