package domain

import "time"

// Product is a single tracked purchase record.
type Product struct {
	ID              int64     `json:"id,string" form:"id"`
	Description     string    `gorm:"index" json:"description" form:"description"`
	Price           float64   `json:"price" form:"price"`
	PlaceOfPurchase string    `gorm:"index" json:"place_of_purchase" form:"place_of_purchase"`
	Category        string    `gorm:"index" json:"category" form:"category"`
	Image           []byte    `json:"image,omitempty" form:"image"`
	Size            string    `json:"size" form:"size"`
	Quantity        string    `json:"quantity" form:"quantity"`
	Barcode         string    `gorm:"index" json:"barcode" form:"barcode"`
	UpdateDate      time.Time `gorm:"index" json:"update_date" form:"update_date"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
