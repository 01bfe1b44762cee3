package entity

import "time"

// Item 物料主数据
type Item struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	SKU       string    `json:"sku" gorm:"size:50;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Unit      string    `json:"unit" gorm:"size:20;default:pcs"`
	Category  string    `json:"category" gorm:"size:100"`
	BasePrice float64   `json:"base_price" gorm:"type:decimal(12,4);default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// Supplier 供应商主数据
type Supplier struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Name          string    `json:"name" gorm:"size:200;not null"`
	ContactPerson string    `json:"contact_person" gorm:"size:100"`
	Email         string    `json:"email" gorm:"size:200"`
	Phone         string    `json:"phone" gorm:"size:50"`
	Rating        float64   `json:"rating" gorm:"type:decimal(3,1);default:5.0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}
