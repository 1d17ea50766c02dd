package gormdb

import "osdashboard/internal/domain"

// WorkOrderRecord is the persisted header of a qualifying work order.
type WorkOrderRecord struct {
	OrderNumber int64  `gorm:"primaryKey;autoIncrement:false"`
	OpenedAt    string `gorm:"column:created_at"`
	StartedAt   string
	FinishedAt  string
	Plate       string
	Brand       string
	Model       string
	Odometer    string
	Title       string
	Type        string
	Status      string
	Driver      string
	Mechanic    string
	Description string
	Supplier    string
	LastUpdate  string

	Details []DetailLineRecord `gorm:"foreignKey:OrderNumber;references:OrderNumber;constraint:OnDelete:CASCADE"`
}

func (WorkOrderRecord) TableName() string { return "work_orders" }

// DetailLineRecord is one material/service line of a persisted order.
type DetailLineRecord struct {
	ID            uint  `gorm:"primaryKey"`
	OrderNumber   int64 `gorm:"not null;index"`
	Material      string
	Quantity      string
	UnitValue     string
	TotalValue    string
	StockQuantity string
}

func (DetailLineRecord) TableName() string { return "detail_lines" }

func newWorkOrderRecord(wo domain.WorkOrder) WorkOrderRecord {
	return WorkOrderRecord{
		OrderNumber: wo.Number,
		OpenedAt:    wo.CreatedAt,
		StartedAt:   wo.StartedAt,
		FinishedAt:  wo.FinishedAt,
		Plate:       wo.Plate,
		Brand:       wo.Brand,
		Model:       wo.Model,
		Odometer:    wo.Odometer,
		Title:       wo.Title,
		Type:        wo.Type,
		Status:      wo.Status,
		Driver:      wo.Driver,
		Mechanic:    wo.Mechanic,
		Description: wo.Description,
		Supplier:    wo.Supplier,
		LastUpdate:  wo.LastUpdate,
	}
}

func (r WorkOrderRecord) toDomain() domain.WorkOrder {
	return domain.WorkOrder{
		Number:      r.OrderNumber,
		CreatedAt:   r.OpenedAt,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Plate:       r.Plate,
		Brand:       r.Brand,
		Model:       r.Model,
		Odometer:    r.Odometer,
		Title:       r.Title,
		Type:        r.Type,
		Status:      r.Status,
		Driver:      r.Driver,
		Mechanic:    r.Mechanic,
		Description: r.Description,
		Supplier:    r.Supplier,
		LastUpdate:  r.LastUpdate,
	}
}

func (r DetailLineRecord) toDomain() domain.DetailLine {
	return domain.DetailLine{
		OrderNumber:   r.OrderNumber,
		Material:      r.Material,
		Quantity:      r.Quantity,
		UnitValue:     r.UnitValue,
		TotalValue:    r.TotalValue,
		StockQuantity: r.StockQuantity,
	}
}
