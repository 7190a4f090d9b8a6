package model

type Product struct {
	ID          string  `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Image       string  `gorm:"type:varchar(512)" json:"image"`
	Price       int64   `gorm:"type:bigint;comment:whole NPR" json:"price"`
	Category    string  `gorm:"type:varchar(64);index" json:"category"`
	Brand       string  `gorm:"type:varchar(64)" json:"brand"`
	Rating      float64 `gorm:"type:decimal(2,1)" json:"rating"`
	Stock       int32   `gorm:"type:int" json:"stock"`
}

func (Product) TableName() string {
	return "products"
}
