package models

import (
	"github.com/shopspring/decimal"
)

// Property 地产目录（全局只读）
type Property struct {
	BaseModel
	Name            string              `gorm:"uniqueIndex;size:100;not null" json:"name"`
	ColorGroup      string              `gorm:"size:30;not null;index" json:"color_group"`
	Position        int                 `gorm:"not null" json:"position"`
	Price           decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"price"`
	MortgageValue   decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"mortgage_value"`
	UnmortgageValue decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"unmortgage_value"`
	HouseCost       decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"house_cost"`
	HotelCost       decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"hotel_cost"`
}

// TableName 指定表名
func (Property) TableName() string {
	return "properties"
}

// Buildable 铁路与公用事业不可建造
func (p *Property) Buildable() bool {
	return p.HouseCost.Valid && p.HotelCost.Valid
}

// ParticipantProperty 地产归属，每局每块地最多一条
type ParticipantProperty struct {
	BaseModel
	GameID        uint `gorm:"not null;uniqueIndex:idx_ownership_game_property" json:"game_id"`
	PropertyID    uint `gorm:"not null;uniqueIndex:idx_ownership_game_property" json:"property_id"`
	ParticipantID uint `gorm:"not null;index" json:"participant_id"`
	IsMortgaged   bool `gorm:"not null;default:false" json:"is_mortgaged"`
	HouseCount    int  `gorm:"not null;default:0" json:"house_count"`
	HotelCount    int  `gorm:"not null;default:0" json:"hotel_count"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// TableName 指定表名
func (ParticipantProperty) TableName() string {
	return "participant_properties"
}

// HasBuildings 是否有房屋或酒店
func (pp *ParticipantProperty) HasBuildings() bool {
	return pp.HouseCount > 0 || pp.HotelCount > 0
}
